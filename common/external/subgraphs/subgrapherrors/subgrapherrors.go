package subgrapherrors

import "errors"

var ErrInvalidSubgraphClient = errors.New("invalid subgraph client")
var ErrChainIDNotFound = errors.New("chain id not found")
var ErrSubgraphURLNotFound = errors.New("subgraph url not found")
