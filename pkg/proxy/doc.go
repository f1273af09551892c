// Package proxy implements the two authoring proxies: a content search passthrough and an
// LLM chat proxy that turns model output into draft dialogue steps.
//
// They help write scenarios; they never drive a session.
package proxy
