package orchestrator

// Canned documents for the scripted run. Real drivers supply their own
// analysis and profile text through SetDocuments.

const defaultAnalysisDoc = `# Project Analysis
## Overview
A checkout service for the storefront, built by a five-role delivery team.
## Goals
Ship a reliable checkout flow without breaking existing integrations.
## Requirements
- R-1: carts survive a session restart
- R-2: payment failures surface to the user within 2s
- R-3: legacy discount codes keep working
## Architecture
Three layers: HTTP surface, checkout domain, storage adapters.
## Constraints
- keep the public API backwards compatible
- single binary deployment
## Implementation
Storage adapters first, then the domain, then the HTTP surface.
## Dependencies
Postgres for orders, Redis for cart state.
## Testing
Every bug fix lands with a regression test.
`

const defaultProfileDoc = `# Style Profile
## Tone
Plain sentences, no marketing language.
## Documentation
Document behavior, not implementation.
## Conventions
Accept interfaces, return structs; wrap errors with package prefixes.
## Patterns
Options pattern for construction; contexts on blocking calls.
## Formatting
gofmt, line length under control, table-driven tests.
## Testing
Table-driven tests with t.Fatalf; no assertion libraries.
`

const requirementsContent = `# Checkout Requirements
- R-1: carts survive a session restart
- R-2: payment failures surface to the user within 2s
- R-3: legacy discount codes keep working
Acceptance: all three verified by automated tests.
`

const designContent = `# Checkout Design
## Storage
Orders in Postgres, cart state in Redis with a 24h TTL.
## Domain
A Checkout aggregate that owns cart mutation and payment capture.
## API
POST /checkout, GET /checkout/{id}; both return within 500ms.
`

const implementationContent = `# Checkout Implementation
Storage adapters and the domain layer are complete.
The payment client retries twice with exponential backoff.
Open question: retry timeouts are currently swallowed.
`

const testPlanContent = `# Checkout Test Plan
- cart survives restart (R-1)
- payment failure surfaces within 2s (R-2)
- discount codes from the legacy table apply (R-3)
- regression: retry timeout propagates to the caller
`

const outputFormatInstructions = "Respond with a short status section followed by the artifact content."
