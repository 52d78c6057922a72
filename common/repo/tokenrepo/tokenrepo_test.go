package tokenrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenList = `{
	"tokens": [
		{"chainId": 10143, "symbol": "CHOG", "address": "0x350035555e10d9afaf1566aaebfced5ba6c27777", "decimals": 18},
		{"chainId": 10143, "symbol": "WMON", "address": "0x3bd359C1119dA7Da1D913D1C4D2B7c461115433A", "decimals": 18},
		{"chainId": 1, "symbol": "WETH", "address": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "decimals": 18}
	]
}`

func writeTokenList(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewRequiresChainID(t *testing.T) {
	_, err := New(TokenRepoConfig{})
	assert.Error(t, err)
}

func TestDefaultsOnly(t *testing.T) {
	repo, err := New(TokenRepoConfig{ChainID: 10143})
	require.NoError(t, err)

	tokens := repo.GetTokens()
	require.Len(t, tokens, 3)

	wmon, ok := repo.GetTokenBySymbol("WMON")
	require.True(t, ok)
	assert.Equal(t, 18, wmon.Decimals)

	usdc, ok := repo.GetTokenBySymbol("USDC")
	require.True(t, ok)
	assert.Equal(t, 6, usdc.Decimals)
}

func TestListExtendsDefaults(t *testing.T) {
	path := writeTokenList(t, testTokenList)

	repo, err := New(TokenRepoConfig{ChainID: 10143, ListPath: path})
	require.NoError(t, err)

	chog, ok := repo.GetTokenBySymbol("CHOG")
	require.True(t, ok)
	assert.Equal(t, "0x350035555e10d9afaf1566aaebfced5ba6c27777", chog.Address)

	// other-chain entries are filtered out
	_, ok = repo.GetTokenBySymbol("WETH")
	assert.False(t, ok)
}

func TestListEntryReplacesDefault(t *testing.T) {
	list := `{"tokens": [{"chainId": 10143, "symbol": "WMON", "address": "0x0000000000000000000000000000000000000042", "decimals": 18}]}`
	path := writeTokenList(t, list)

	repo, err := New(TokenRepoConfig{ChainID: 10143, ListPath: path})
	require.NoError(t, err)

	wmon, ok := repo.GetTokenBySymbol("WMON")
	require.True(t, ok)
	assert.Equal(t, "0x0000000000000000000000000000000000000042", wmon.Address)

	// still one WMON entry in the list view
	count := 0
	for _, token := range repo.GetTokens() {
		if token.Symbol == "WMON" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGetTokenByAddressIsCaseInsensitive(t *testing.T) {
	repo, err := New(TokenRepoConfig{ChainID: 10143})
	require.NoError(t, err)

	token, ok := repo.GetTokenByAddress("0x3BD359C1119DA7DA1D913D1C4D2B7C461115433A")
	require.True(t, ok)
	assert.Equal(t, "WMON", token.Symbol)
}

func TestMissingListFileFails(t *testing.T) {
	_, err := New(TokenRepoConfig{ChainID: 10143, ListPath: "/does/not/exist.json"})
	assert.Error(t, err)
}
