package cauldron

var (
	assetPrefix      = []byte("cauldron/asset/")
	seriesPrefix     = []byte("cauldron/series/")
	ilkPrefix        = []byte("cauldron/ilk/")
	spotOraclePrefix = []byte("cauldron/spot/")
	debtPrefix       = []byte("cauldron/debt/")
	vaultPrefix      = []byte("cauldron/vault/")
	balancesPrefix   = []byte("cauldron/balances/")
)

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}

func assetKey(id AssetID) []byte { return prefixedKey(assetPrefix, id[:]) }

func seriesKey(id SeriesID) []byte { return prefixedKey(seriesPrefix, id[:]) }

func ilkKey(series SeriesID, ilk AssetID) []byte {
	return prefixedKey(ilkPrefix, series[:], ilk[:])
}

func spotOracleKey(base, ilk AssetID) []byte {
	return prefixedKey(spotOraclePrefix, base[:], ilk[:])
}

func debtKey(base, ilk AssetID) []byte {
	return prefixedKey(debtPrefix, base[:], ilk[:])
}

func vaultKey(id VaultID) []byte { return prefixedKey(vaultPrefix, id[:]) }

func balancesKey(id VaultID) []byte { return prefixedKey(balancesPrefix, id[:]) }
