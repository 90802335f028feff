// Package studio is the editing core behind Hector Studio: it creates,
// validates, imports and exports agent configurations.
//
// An agent configuration is a record holding identity and version metadata
// plus a tagged union over four agent kinds (llm, workflow, custom and
// a2a-specialist), a set of optional subsystems (state persistence, RAG
// memory, artifacts, A2A, deployment) and the tools the agent uses.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/kadirpekel/hector-studio/cmd/hector-studio@latest
//
// Scaffold, validate and store an agent:
//
//	hector-studio create --type llm --name "Support Agent" -o support.yaml
//	hector-studio validate support.yaml --watch
//	hector-studio import support.yaml
//
// Run the editing API:
//
//	hector-studio serve --config studio.yaml
//
// # Using as a Go Library
//
//	import (
//	    "github.com/kadirpekel/hector-studio/pkg/agentconfig"
//	    "github.com/kadirpekel/hector-studio/pkg/codec"
//	    "github.com/kadirpekel/hector-studio/pkg/editor"
//	    "github.com/kadirpekel/hector-studio/pkg/validation"
//	)
//
// validation.Validate reports every violation of a document at once as a
// validation.ErrorList. codec serializes records to JSON or YAML such that
// a valid record survives a round trip unchanged. editor.Session owns one
// draft and drives the ten-step wizard, tool configuration, imports and
// suggestions for it.
//
// # License
//
// AGPL-3.0 - See LICENSE.md for details.
package studio
