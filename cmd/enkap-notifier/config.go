package main

import (
	"context"
	"flag"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
)

type FlagType int
type FlagMap map[FlagType]string

const (
	listenAddress FlagType = iota
	servicePort

	configPath
	opaPath
)

func parseExternalConfig(ctx context.Context, flags FlagMap) FlagMap {
	flags[listenAddress] = env.GetVariableOrDefault(ctx, "LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = env.GetVariableOrDefault(ctx, "SERVICE_PORT", flags[servicePort])
	flags[configPath] = env.GetVariableOrDefault(ctx, "ENKAP_CONFIG_PATH", flags[configPath])
	flags[opaPath] = env.GetVariableOrDefault(ctx, "ENKAP_POLICIES_PATH", flags[opaPath])

	apply := func(f FlagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	flag.Func("config", "path to the enkap yaml configuration", apply(configPath))
	flag.Func("policies", "path to the notification authz policies", apply(opaPath))
	flag.Func("port", "port to listen for notifications on", apply(servicePort))
	flag.Parse()

	return flags
}
