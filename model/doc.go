// Package model defines the provider-agnostic abstraction for the language
// models that back AdvisorMesh agents.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the executor remains decoupled from vendor SDKs. The advisory
// agents are text-only, so no tool/function-call plumbing exists here.
package model
