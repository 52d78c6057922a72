package envhelper

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Environment struct {
	MONAD_RPC_WS   string
	MONAD_RPC_HTTP string
	CHAIN_ID       uint

	KAFKA_SERVER            string
	KAFKA_SWAP_EVENTS_TOPIC string

	REDIS_SERVER string

	SUBGRAPH_API_TOKEN string
	TOKEN_LIST_PATH    string

	SCAN_INTERVAL_SECONDS uint
}

var env *Environment

func GetEnv() (*Environment, error) {
	if env != nil {
		return env, nil
	}

	env = &Environment{}
	err := load()
	if err != nil {
		env = nil
		return nil, err
	}
	return env, nil
}

const _MONAD_RPC_WS = "MONAD_RPC_WS"
const _MONAD_RPC_HTTP = "MONAD_RPC_HTTP"
const _CHAIN_ID = "CHAIN_ID"

const _KAFKA_SERVER = "KAFKA_SERVER"
const _KAFKA_SWAP_EVENTS_TOPIC = "KAFKA_SWAP_EVENTS_TOPIC"

const _REDIS_SERVER = "REDIS_SERVER"

const _SUBGRAPH_API_TOKEN = "SUBGRAPH_API_TOKEN"
const _TOKEN_LIST_PATH = "TOKEN_LIST_PATH"

const _SCAN_INTERVAL_SECONDS = "SCAN_INTERVAL_SECONDS"

func load() error {
	godotenv.Load()

	env.MONAD_RPC_WS = os.Getenv(_MONAD_RPC_WS)
	if env.MONAD_RPC_WS == "" {
		return buildLoadingEnvError(_MONAD_RPC_WS)
	}

	env.MONAD_RPC_HTTP = os.Getenv(_MONAD_RPC_HTTP)
	if env.MONAD_RPC_HTTP == "" {
		return buildLoadingEnvError(_MONAD_RPC_HTTP)
	}

	chainIDStr := os.Getenv(_CHAIN_ID)
	chainID, err := strconv.Atoi(chainIDStr)
	if err != nil {
		return buildLoadingEnvError(_CHAIN_ID)
	}
	env.CHAIN_ID = uint(chainID)

	env.KAFKA_SERVER = os.Getenv(_KAFKA_SERVER)
	if env.KAFKA_SERVER == "" {
		return buildLoadingEnvError(_KAFKA_SERVER)
	}

	env.KAFKA_SWAP_EVENTS_TOPIC = os.Getenv(_KAFKA_SWAP_EVENTS_TOPIC)
	if env.KAFKA_SWAP_EVENTS_TOPIC == "" {
		return buildLoadingEnvError(_KAFKA_SWAP_EVENTS_TOPIC)
	}

	env.REDIS_SERVER = os.Getenv(_REDIS_SERVER)
	if env.REDIS_SERVER == "" {
		return buildLoadingEnvError(_REDIS_SERVER)
	}

	//optional, seeding and token list fall back to builtin defaults
	env.SUBGRAPH_API_TOKEN = os.Getenv(_SUBGRAPH_API_TOKEN)
	env.TOKEN_LIST_PATH = os.Getenv(_TOKEN_LIST_PATH)

	env.SCAN_INTERVAL_SECONDS = 30
	if intervalStr := os.Getenv(_SCAN_INTERVAL_SECONDS); intervalStr != "" {
		interval, err := strconv.Atoi(intervalStr)
		if err != nil || interval <= 0 {
			return buildLoadingEnvError(_SCAN_INTERVAL_SECONDS)
		}
		env.SCAN_INTERVAL_SECONDS = uint(interval)
	}

	return nil
}

func buildLoadingEnvError(key string) error {
	return fmt.Errorf("error with variable: %s", key)
}
