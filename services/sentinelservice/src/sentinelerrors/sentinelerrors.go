package sentinelerrors

import "errors"

var ErrNoTopicsInLog = errors.New("no topics in log")
var ErrUnknownTopic = errors.New("unknown log topic")
var ErrLogDataTooShort = errors.New("log data too short")
var ErrUnableToResolvePool = errors.New("unable to resolve pool")
var ErrSubscriptionClosed = errors.New("log subscription closed")
