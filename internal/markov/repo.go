package markov

import (
	"context"

	"gorm.io/gorm"
)

// Store is the word-pair multiset the updater writes to and the generator reads from.
type Store interface {
	Record(ctx context.Context, word1, word2 string) error
	SampleAnyStart(ctx context.Context) (string, bool, error)
	SampleSuccessor(ctx context.Context, word string) (string, bool, error)
}

// BatchRecorder is implemented by stores that can append several pairs as one unit.
type BatchRecorder interface {
	RecordBatch(ctx context.Context, pairs []WordPair) error
}

type Repo struct {
	db     *gorm.DB
	random string
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db, random: randomOrder(db)}
}

// Migrate creates the markov table if it is missing.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&WordPair{})
}

func randomOrder(db *gorm.DB) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}

func (r *Repo) Record(ctx context.Context, word1, word2 string) error {
	if err := r.db.WithContext(ctx).Create(&WordPair{Word1: word1, Word2: word2}).Error; err != nil {
		return unavailable("record", err)
	}
	return nil
}

// RecordBatch appends all pairs in a single transaction; either every pair lands or none does.
func (r *Repo) RecordBatch(ctx context.Context, pairs []WordPair) error {
	if len(pairs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(pairs, 100).Error
	})
	if err != nil {
		return unavailable("record batch", err)
	}
	return nil
}

// SampleAnyStart picks word1 from one uniformly random row.
func (r *Repo) SampleAnyStart(ctx context.Context) (string, bool, error) {
	var words []string
	if err := r.db.WithContext(ctx).
		Model(&WordPair{}).
		Order(r.random).
		Limit(1).
		Pluck("word1", &words).Error; err != nil {
		return "", false, unavailable("sample start", err)
	}
	if len(words) == 0 {
		return "", false, nil
	}
	return words[0], true, nil
}

// SampleSuccessor picks word2 from one uniformly random row with word1 = word.
// Sampling is over rows, not distinct values, so repeated transitions weigh more.
func (r *Repo) SampleSuccessor(ctx context.Context, word string) (string, bool, error) {
	var words []string
	if err := r.db.WithContext(ctx).
		Model(&WordPair{}).
		Where("word1 = ?", word).
		Order(r.random).
		Limit(1).
		Pluck("word2", &words).Error; err != nil {
		return "", false, unavailable("sample successor", err)
	}
	if len(words) == 0 {
		return "", false, nil
	}
	return words[0], true, nil
}

func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	q := r.db.WithContext(ctx).Model(&WordPair{})
	if err := q.Count(&s.Observations).Error; err != nil {
		return Stats{}, unavailable("count", err)
	}
	if err := r.db.WithContext(ctx).Model(&WordPair{}).Distinct("word1").Count(&s.DistinctWords).Error; err != nil {
		return Stats{}, unavailable("count distinct", err)
	}
	return s, nil
}
