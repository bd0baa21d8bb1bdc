// Package vault syncs the store with an Obsidian vault on disk. Tasks and
// knowledge documents become markdown notes with YAML frontmatter under
// <vault>/tasks and <vault>/knowledge, one file per entity named by id.
//
// Export mirrors live (non-trashed) entities into the vault. Import reads
// every note back and upserts it, reviving trashed entities along the way;
// replace mode additionally trashes store entities that no longer have a
// note. File IO runs with bounded concurrency.
package vault
