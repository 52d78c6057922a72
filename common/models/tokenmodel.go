package models

type TokenIdentificator struct {
	Address string
	ChainID uint
}

type Token struct {
	Symbol   string
	Address  string
	ChainID  uint
	Decimals int
}

func (t *Token) GetIdentificator() TokenIdentificator {
	return TokenIdentificator{
		Address: t.Address,
		ChainID: t.ChainID,
	}
}
