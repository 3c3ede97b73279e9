// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config owns process-wide bootstrap: logging and the viper-backed
// settings the engine and its optional Postgres/Redis backends read. This
// is ambient plumbing, not part of the phase generation engine itself --
// the engine never reads viper directly, only values threaded in through
// store.Config and cache.Config.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/viper"
)

// Load reads TH_-prefixed environment variables and an optional TOML
// config file from the usual search paths, the way the teacher's
// configureViper/SetupLogging pair did.
func Load() {
	viper.SetEnvPrefix("TH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/tradinghours/")
	viper.AddConfigPath("$HOME/.config/tradinghours")
	viper.AddConfigPath(".")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.pretty", false)
	viper.SetDefault("cache.local_size", 1024)
	viper.SetDefault("cache.ttl", 3600)
	viper.SetDefault("cache.redis", false)

	// A missing config file is not fatal -- env vars and defaults suffice
	// for library use; only a malformed file that does exist is an error.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			panic(err)
		}
	}
}

// SetupLogging configures the global zerolog logger from viper settings.
func SetupLogging() {
	switch strings.ToLower(viper.GetString("log.level")) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if viper.GetBool("log.report_caller") {
		log.Logger = log.With().Caller().Logger()
	}

	switch viper.GetString("log.output") {
	case "stderr":
		if viper.GetBool("log.pretty") {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		} else {
			log.Logger = log.Output(os.Stderr)
		}
	default:
		if viper.GetBool("log.pretty") {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
		} else {
			log.Logger = log.Output(os.Stdout)
		}
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// CacheTTL returns the configured Redis cache entry lifetime.
func CacheTTL() time.Duration {
	return time.Duration(viper.GetInt("cache.ttl")) * time.Second
}

// CacheLocalSize returns the configured in-process LRU capacity.
func CacheLocalSize() int {
	return viper.GetInt("cache.local_size")
}

// RedisURL returns the configured Redis URL, or "" if the Redis tier is
// disabled.
func RedisURL() string {
	if !viper.GetBool("cache.redis") {
		return ""
	}
	return viper.GetString("cache.redis_url")
}

// DatabaseURL returns the Postgres DSN used by store.PostgresStore.
func DatabaseURL() string {
	return viper.GetString("database.url")
}
