package markov

// WordPair is one observation of Word1 immediately followed by Word2.
// Duplicate rows are meaningful: each one adds sampling weight to the transition.
type WordPair struct {
	Word1 string `gorm:"column:word1;type:text;not null" json:"word1"`
	Word2 string `gorm:"column:word2;type:text;not null" json:"word2"`
}

func (WordPair) TableName() string { return "markov" }

// Stats summarizes the stored chain.
type Stats struct {
	Observations  int64 `json:"observations"`
	DistinctWords int64 `json:"distinct_words"`
}
