package search

import (
	"errors"
	"strconv"

	"Lee_QnA/internal/config"
	"Lee_QnA/internal/model"

	"github.com/meilisearch/meilisearch-go"
)

const defaultLimit = 20

// QuestionDocument 索引中的问题文档，只收录未删除的问题
type QuestionDocument struct {
	ID         uint64 `json:"id"`
	Title      string `json:"title"`
	Contents   string `json:"contents"`
	WriterID   uint64 `json:"writer_id"`
	WriterName string `json:"writer_name"`
	CreatedAt  int64  `json:"created_at"`
}

func newDocument(q *model.Question) QuestionDocument {
	doc := QuestionDocument{
		ID:        q.ID,
		Title:     q.Title,
		Contents:  q.Contents,
		WriterID:  q.WriterID,
		CreatedAt: q.CreatedAt.Unix(),
	}
	if q.Writer != nil {
		doc.WriterName = q.Writer.Name
	}
	return doc
}

type QuestionIndex struct {
	client *meilisearch.Client
	index  string
}

func NewQuestionIndex(cfg config.SearchConfig) *QuestionIndex {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   cfg.Host,
		APIKey: cfg.APIKey,
	})
	return &QuestionIndex{client: client, index: cfg.Index}
}

// InitIndex 建索引是异步任务，已存在时任务失败但不影响后续设置
func (s *QuestionIndex) InitIndex() error {
	if _, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	}); err != nil {
		return err
	}
	if _, err := s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"contents",
		"writer_name",
	}); err != nil {
		return err
	}
	_, err := s.client.Index(s.index).UpdateSortableAttributes(&[]string{"created_at"})
	return err
}

func (s *QuestionIndex) IndexQuestions(questions []model.Question) error {
	docs := make([]QuestionDocument, 0, len(questions))
	for i := range questions {
		if questions[i].Deleted {
			continue
		}
		docs = append(docs, newDocument(&questions[i]))
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs, "id")
	return err
}

func (s *QuestionIndex) RemoveQuestion(id uint64) error {
	_, err := s.client.Index(s.index).DeleteDocument(strconv.FormatUint(id, 10))
	return err
}

// Search 返回命中的问题 id，按相关度排序
func (s *QuestionIndex) Search(query string, limit int64) ([]uint64, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	res, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		m, ok := hit.(map[string]interface{})
		if !ok {
			return nil, errors.New("unexpected search hit")
		}
		if id, ok := m["id"].(float64); ok {
			ids = append(ids, uint64(id))
		}
	}
	return ids, nil
}

// Nop 未启用搜索时使用
type Nop struct{}

func (Nop) IndexQuestions([]model.Question) error { return nil }
func (Nop) RemoveQuestion(uint64) error            { return nil }
func (Nop) Search(string, int64) ([]uint64, error) { return nil, nil }
