package scraper

// Config bounds the work strategies do on a single page.
type Config struct {
	// Keywords drive the keyword-proximity scan, in priority order.
	Keywords []string

	APIItemCap      int
	CSSItemCap      int
	KeywordScan     int
	PerKeywordCap   int
	KeywordTotalCap int
	MinTitleLen     int
	MaxTitleLen     int
}

func DefaultConfig() Config {
	return Config{
		APIItemCap:      30,
		CSSItemCap:      20,
		KeywordScan:     10,
		PerKeywordCap:   5,
		KeywordTotalCap: 10,
		MinTitleLen:     20,
		MaxTitleLen:     150,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.APIItemCap <= 0 {
		c.APIItemCap = def.APIItemCap
	}
	if c.CSSItemCap <= 0 {
		c.CSSItemCap = def.CSSItemCap
	}
	if c.KeywordScan <= 0 {
		c.KeywordScan = def.KeywordScan
	}
	if c.PerKeywordCap <= 0 {
		c.PerKeywordCap = def.PerKeywordCap
	}
	if c.KeywordTotalCap <= 0 {
		c.KeywordTotalCap = def.KeywordTotalCap
	}
	if c.MinTitleLen <= 0 {
		c.MinTitleLen = def.MinTitleLen
	}
	if c.MaxTitleLen <= 0 {
		c.MaxTitleLen = def.MaxTitleLen
	}
	return c
}
