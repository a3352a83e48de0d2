package mysql

// The canonical payload is stored whole in `doc`; the scalar columns next to it
// are copies for listing screens and filters.
const insertListingSQL = `
INSERT INTO listings
  (id, transaction_type, visibility, title_en, title_vi, project_en, zone_en, doc)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

// version always moves, so RowsAffected is 1 for every existing row even when
// the document is unchanged.
const updateListingSQL = `
UPDATE listings SET
  transaction_type = ?,
  visibility       = ?,
  title_en         = ?,
  title_vi         = ?,
  project_en       = ?,
  zone_en          = ?,
  doc              = ?,
  version          = version + 1,
  updated_at       = CURRENT_TIMESTAMP
WHERE id = ?
`

const getListingSQL = `
SELECT doc
FROM listings
WHERE id = ?
`

const upsertLookupsPrefix = "INSERT INTO lookup_entities\n  (collection, id, name_en, name_vi, symbol_en, symbol_vi, status, position)\nVALUES "

const upsertLookupsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  name_en   = VALUES(name_en),\n" +
	"  name_vi   = VALUES(name_vi),\n" +
	"  symbol_en = VALUES(symbol_en),\n" +
	"  symbol_vi = VALUES(symbol_vi),\n" +
	"  status    = VALUES(status),\n" +
	"  position  = VALUES(position),\n" +
	"  synced_at = CURRENT_TIMESTAMP\n"

// Entities the CMS stopped returning are deactivated, never deleted: stored
// listings may still display their names.
const deactivateMissingPrefix = "UPDATE lookup_entities SET status = 'Inactive'\nWHERE collection = ?"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const loadLookupsSQL = `
SELECT collection, id, name_en, name_vi, symbol_en, symbol_vi, status
FROM lookup_entities
ORDER BY collection, position, id
`
