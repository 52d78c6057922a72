package chainclienterrors

import "errors"

var ErrInvalidRpcEndpoint = errors.New("invalid rpc endpoint")
var ErrMulticallCorrupted = errors.New("multicall return data is corrupted")
var ErrUnableToUnpack = errors.New("unable to unpack return data")
var ErrEmptyReturnData = errors.New("empty return data")
var ErrPoolNotFound = errors.New("pool not found")
