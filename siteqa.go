// Package siteqa answers natural-language questions about an organization
// using content scraped from its public website. Pages are chunked, embedded
// and stored in a vector index; questions are answered by retrieving the
// most similar chunks and asking a language model to answer from them.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, anthropic/).
package siteqa
