package store

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	bolt "go.etcd.io/bbolt"

	"litepeer.dev/client/consensus"
)

// BoltStore is the disk-backed BlockStore, grounded on the teacher's
// node/store/db.go bucket layout and its "commit the pointer in the
// same transaction as the data" discipline (node/store/reorg.go). The
// chain-head pointer lives in its own single-entry bucket so that
// SetChainHead can update it atomically with respect to crashes
// (spec.md §4.6): a crash either observes the old (header, head) pair
// or the new one, never a head pointing at a header the bucket lacks.
type BoltStore struct {
	db *bolt.DB
}

var (
	bucketHeaders = []byte("headers_by_hash")
	bucketMeta    = []byte("meta")
	keyChainHead  = []byte("chain_head")
)

func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketHeaders); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func encodeStoredBlock(sb StoredBlock) []byte {
	header := sb.Header.Serialize()
	work := sb.ChainWork.Bytes()

	out := make([]byte, 0, len(header)+8+2+len(work))
	out = append(out, header...)
	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], sb.Height)
	out = append(out, heightBuf[:]...)
	var workLen [2]byte
	binary.BigEndian.PutUint16(workLen[:], uint16(len(work)))
	out = append(out, workLen[:]...)
	out = append(out, work...)
	return out
}

func decodeStoredBlock(b []byte) (StoredBlock, error) {
	if len(b) < consensus.HeaderSize+10 {
		return StoredBlock{}, fmt.Errorf("store: stored block record truncated")
	}
	header, err := consensus.ParseBlockHeader(b[:consensus.HeaderSize])
	if err != nil {
		return StoredBlock{}, err
	}
	off := consensus.HeaderSize
	height := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	workLen := binary.BigEndian.Uint16(b[off : off+2])
	off += 2
	if len(b)-off < int(workLen) {
		return StoredBlock{}, fmt.Errorf("store: chainwork field truncated")
	}
	work := new(big.Int).SetBytes(b[off : off+int(workLen)])
	return StoredBlock{Header: *header, Height: height, ChainWork: work}, nil
}

func (s *BoltStore) Put(sb StoredBlock) error {
	hash := sb.Hash()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHeaders).Put(hash[:], encodeStoredBlock(sb))
	})
}

func (s *BoltStore) Get(hash consensus.Hash) (StoredBlock, bool, error) {
	var sb StoredBlock
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketHeaders).Get(hash[:])
		if raw == nil {
			return nil
		}
		found = true
		decoded, err := decodeStoredBlock(raw)
		if err != nil {
			return err
		}
		sb = decoded
		return nil
	})
	return sb, found, err
}

func (s *BoltStore) GetChainHead() (StoredBlock, error) {
	var sb StoredBlock
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		headHash := tx.Bucket(bucketMeta).Get(keyChainHead)
		if headHash == nil {
			return nil
		}
		raw := tx.Bucket(bucketHeaders).Get(headHash)
		if raw == nil {
			return fmt.Errorf("store: chain head %x missing from headers bucket", headHash)
		}
		decoded, err := decodeStoredBlock(raw)
		if err != nil {
			return err
		}
		sb = decoded
		found = true
		return nil
	})
	if err != nil {
		return StoredBlock{}, err
	}
	if !found {
		return StoredBlock{}, ErrNoChainHead
	}
	return sb, nil
}

// SetChainHead writes sb's header and advances the head pointer to it
// in a single bbolt transaction.
func (s *BoltStore) SetChainHead(sb StoredBlock) error {
	hash := sb.Hash()
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketHeaders).Put(hash[:], encodeStoredBlock(sb)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyChainHead, hash[:])
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
