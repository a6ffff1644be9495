package data

// ElasticResult mirrors the subset of an indexer transaction search response
// the keeper reads.
type ElasticResult struct {
	Hits struct {
		Hits []*ElasticEntry `json:"hits"`
	} `json:"hits"`
}

// ElasticEntry is one indexed transaction document.
type ElasticEntry struct {
	Source struct {
		Status   string `json:"status"`
		Data     []byte `json:"data"`
		Sender   string `json:"sender"`
		Receiver string `json:"receiver"`
		Value    string `json:"value"`
		Nonce    uint64 `json:"nonce"`
	} `json:"_source"`
}
