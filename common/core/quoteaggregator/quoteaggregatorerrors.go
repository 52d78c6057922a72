package quoteaggregator

import "errors"

var ErrNilChainCaller = errors.New("nil chain caller")
