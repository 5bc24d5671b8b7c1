package retrieval

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/standardbeagle/lci/internal/errors"
)

// scoreFromDistance converts a cosine distance to a similarity score via
// exponential decay (spec §4.7: "score=exp(-distance)").
func scoreFromDistance(distance float64) float64 {
	return math.Exp(-distance)
}

// StoredChunk is a Chunk plus its vector-store identity and provenance,
// as returned from a k-NN search (spec §4.7's "vector store" contract,
// supplemented per SPEC_FULL §3 with embedding_model/created_at).
type StoredChunk struct {
	Chunk
	ID             int64
	EmbeddingModel string
	CreatedAt      time.Time
	Distance       float64
	Score          float64 // exp(-distance)
}

// VectorStore persists chunks and their embeddings to a columnar on-disk
// store keyed by (path, start_line, end_line) plus metadata, and serves
// cosine k-NN search via sqlite-vec's vec0 virtual table.
type VectorStore struct {
	db  *sql.DB
	dim int
}

// OpenVectorStore opens (creating if absent) a sqlite-vec-backed store at
// dbPath with dim-dimensional embeddings.
func OpenVectorStore(dbPath string, dim int) (*VectorStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.NewFileError("open_vector_store", dbPath, err)
	}
	store := &VectorStore{db: db, dim: dim}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *VectorStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS chunk_meta (
		rowid INTEGER PRIMARY KEY,
		path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		content TEXT NOT NULL,
		kind TEXT NOT NULL,
		symbol TEXT,
		embedding_model TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return errors.NewFileError("init_chunk_meta", "chunk_meta", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_chunk_meta_path ON chunk_meta(path, start_line, end_line)`)
	if err != nil {
		return errors.NewFileError("init_chunk_meta_index", "chunk_meta", err)
	}

	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS vec_index USING vec0(embedding float[%d] distance_metric=cosine)", s.dim)
	if _, err := s.db.Exec(stmt); err != nil {
		return errors.NewFileError("init_vec_index", "vec_index", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// Upsert replaces any chunk at (path, start_line, end_line) and stores
// its vector, returning the assigned rowid.
func (s *VectorStore) Upsert(c Chunk, vec []float32, embeddingModel string) (int64, error) {
	if len(vec) != s.dim {
		return 0, fmt.Errorf("retrieval: vector has %d dims, store expects %d", len(vec), s.dim)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.NewTransientIOError("vector_upsert_begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chunk_meta WHERE path = ? AND start_line = ? AND end_line = ?`,
		c.Path, c.StartLine, c.EndLine); err != nil {
		return 0, errors.NewFileError("vector_delete_existing", c.Path, err)
	}

	res, err := tx.Exec(`INSERT INTO chunk_meta (path, start_line, end_line, content, kind, symbol, embedding_model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Path, c.StartLine, c.EndLine, c.Content, string(c.Kind), c.Symbol, embeddingModel, time.Now())
	if err != nil {
		return 0, errors.NewFileError("vector_insert_meta", c.Path, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewFileError("vector_last_insert_id", c.Path, err)
	}

	if _, err := tx.Exec(`INSERT INTO vec_index (rowid, embedding) VALUES (?, ?)`, rowID, encodeVector(vec)); err != nil {
		return 0, errors.NewFileError("vector_insert_embedding", c.Path, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.NewTransientIOError("vector_upsert_commit", err)
	}
	return rowID, nil
}

// Search returns the limit nearest chunks to query by cosine distance,
// with score = exp(-distance) (spec §4.7).
func (s *VectorStore) Search(query []float32, limit int) ([]StoredChunk, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("retrieval: query vector has %d dims, store expects %d", len(query), s.dim)
	}
	rows, err := s.db.Query(`
		SELECT m.rowid, m.path, m.start_line, m.end_line, m.content, m.kind, m.symbol, m.embedding_model, m.created_at, v.distance
		FROM vec_index v JOIN chunk_meta m ON m.rowid = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance ASC`, encodeVector(query), limit)
	if err != nil {
		return nil, errors.NewSearchError("vector_search", err)
	}
	defer rows.Close()

	var results []StoredChunk
	for rows.Next() {
		var sc StoredChunk
		var kind string
		if err := rows.Scan(&sc.ID, &sc.Path, &sc.StartLine, &sc.EndLine, &sc.Content, &kind, &sc.Symbol, &sc.EmbeddingModel, &sc.CreatedAt, &sc.Distance); err != nil {
			return nil, errors.NewSearchError("vector_search_scan", err)
		}
		sc.Kind = ChunkKind(kind)
		sc.Score = scoreFromDistance(sc.Distance)
		results = append(results, sc)
	}
	return results, rows.Err()
}

// AllChunks returns every stored chunk's content and location, for use as
// the candidate pool behind a fuzzy token/trigram pass.
func (s *VectorStore) AllChunks() ([]Chunk, error) {
	rows, err := s.db.Query(`SELECT path, start_line, end_line, content, kind, symbol FROM chunk_meta`)
	if err != nil {
		return nil, errors.NewSearchError("vector_all_chunks", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var kind string
		if err := rows.Scan(&c.Path, &c.StartLine, &c.EndLine, &c.Content, &kind, &c.Symbol); err != nil {
			return nil, errors.NewSearchError("vector_all_chunks_scan", err)
		}
		c.Kind = ChunkKind(kind)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func encodeVector(v []float32) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}
