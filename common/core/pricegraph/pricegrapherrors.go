package pricegraph

import "errors"

var ErrNilTokenRepo = errors.New("nil token repo")
var ErrNilAggregator = errors.New("nil quote aggregator")
var ErrNilPriceCache = errors.New("nil price cache")
var ErrNilRegistry = errors.New("nil pool registry")
