package tokenrepo

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/monadarb/go_monad_discovery/common/models"
)

type TokenRepo interface {
	GetTokens() []models.Token
	GetTokenBySymbol(symbol string) (models.Token, bool)
	GetTokenByAddress(address string) (models.Token, bool)
}

type TokenRepoConfig struct {
	ChainID uint
	// ListPath points at the token list JSON. Empty path means builtin
	// defaults only.
	ListPath string
}

type tokenRepo struct {
	tokens     []models.Token
	bySymbol   map[string]models.Token
	byAddress  map[string]models.Token
	chainID    uint
	listLoaded bool
}

type tokenListFile struct {
	Tokens []struct {
		ChainID  uint   `json:"chainId"`
		Symbol   string `json:"symbol"`
		Address  string `json:"address"`
		Decimals int    `json:"decimals"`
	} `json:"tokens"`
}

func New(config TokenRepoConfig) (TokenRepo, error) {
	if config.ChainID == 0 {
		return nil, errors.New("token repo config chain id cannot be empty")
	}

	repo := &tokenRepo{
		chainID:   config.ChainID,
		bySymbol:  map[string]models.Token{},
		byAddress: map[string]models.Token{},
	}

	for _, token := range defaultTokens(config.ChainID) {
		repo.add(token)
	}

	if config.ListPath != "" {
		err := repo.loadList(config.ListPath)
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (r *tokenRepo) loadList(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	list := tokenListFile{}
	err = json.Unmarshal(data, &list)
	if err != nil {
		return err
	}

	for _, entry := range list.Tokens {
		if entry.ChainID != r.chainID {
			continue
		}

		r.add(models.Token{
			Symbol:   entry.Symbol,
			Address:  entry.Address,
			ChainID:  entry.ChainID,
			Decimals: entry.Decimals,
		})
	}

	r.listLoaded = true
	return nil
}

func (r *tokenRepo) add(token models.Token) {
	if existing, ok := r.bySymbol[token.Symbol]; ok {
		// Replace list entries over defaults, keep first list entry.
		delete(r.byAddress, strings.ToLower(existing.Address))

		for i := range r.tokens {
			if r.tokens[i].Symbol == token.Symbol {
				r.tokens[i] = token
			}
		}
	} else {
		r.tokens = append(r.tokens, token)
	}

	r.bySymbol[token.Symbol] = token
	r.byAddress[strings.ToLower(token.Address)] = token
}

func (r *tokenRepo) GetTokens() []models.Token {
	tokens := make([]models.Token, len(r.tokens))
	copy(tokens, r.tokens)
	return tokens
}

func (r *tokenRepo) GetTokenBySymbol(symbol string) (models.Token, bool) {
	token, ok := r.bySymbol[symbol]
	return token, ok
}

func (r *tokenRepo) GetTokenByAddress(address string) (models.Token, bool) {
	token, ok := r.byAddress[strings.ToLower(address)]
	return token, ok
}

func defaultTokens(chainID uint) []models.Token {
	return []models.Token{
		{Symbol: "WMON", Address: "0x3bd359C1119dA7Da1D913D1C4D2B7c461115433A", ChainID: chainID, Decimals: 18},
		{Symbol: "USDC", Address: "0x754704Bc059F8C67012fEd69BC8A327a5aafb603", ChainID: chainID, Decimals: 6},
		{Symbol: "USDT", Address: "0x88b8E2161DEDC77EF4ab7585569D2415a1C1055D", ChainID: chainID, Decimals: 6},
	}
}
