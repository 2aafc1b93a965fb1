// Package core contains the custody domain: the precision converter, the
// custody/issuance coordinator, ledger and configuration contracts, and the
// in-memory implementations used by default. Storage and transport adapters
// depend on this package; core does not depend on them.
package core
