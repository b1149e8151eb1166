// Package card turns a server status record into a presentational card.
//
// Rendering is pure apart from the generation timestamp, which comes from an
// injectable clock. Classification into a [Tier] is shared with the HTTP
// status endpoint so both surfaces agree on what "Seeding" means.
package card
