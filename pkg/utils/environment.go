// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package utils

import "strings"

// HireloopEnvironment identifies the deployment environment.
type HireloopEnvironment string

const (
	PRODUCTION  HireloopEnvironment = "production"
	DEVELOPMENT HireloopEnvironment = "development"
)

func (e HireloopEnvironment) Get() string {
	return string(e)
}

// FromEnvironmentStr parses an environment name; anything unrecognized
// defaults to development.
func FromEnvironmentStr(s string) HireloopEnvironment {
	if strings.EqualFold(s, string(PRODUCTION)) {
		return PRODUCTION
	}
	return DEVELOPMENT
}

// IsProduction reports whether the environment is production.
func (e HireloopEnvironment) IsProduction() bool {
	return e == PRODUCTION
}
