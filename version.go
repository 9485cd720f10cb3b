package slidescene

// Version is the slidescene release. Imported decks carry it in
// Metadata.Importer.
const Version = "0.4.0"

const importerName = "slidescene/" + Version
