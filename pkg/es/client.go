// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fanwall-go/internal/config"
	"fanwall-go/internal/model"
	"fanwall-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// Client 封装相册检索索引的读写操作。
type Client struct {
	es    *elasticsearch.Client
	index string
}

// NewClient 初始化 Elasticsearch 客户端并确保相册索引存在。
func NewClient(esCfg config.ElasticsearchConfig) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{es: es, index: esCfg.IndexName}
	if err := c.createIndexIfNotExists(); err != nil {
		return nil, err
	}
	return c, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它。
func (c *Client) createIndexIfNotExists() error {
	res, err := c.es.Indices.Exists([]string{c.index})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.index)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", c.index, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := `{
		"mappings": {
			"properties": {
				"upload_id": { "type": "keyword" },
				"event_id": { "type": "keyword" },
				"uploader_name": { "type": "text" },
				"file_type": { "type": "keyword" },
				"file_url": { "type": "keyword", "index": false },
				"thumbnail_url": { "type": "keyword", "index": false },
				"uploaded_at": { "type": "date" }
			}
		}
	}`

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", c.index, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.index, res.String())
		return fmt.Errorf("创建索引时 Elasticsearch 返回错误: %s", res.String())
	}

	log.Infof("索引 '%s' 创建成功", c.index)
	return nil
}

// IndexUpload 将一条已通过审核的上传写入相册索引，文档 ID 使用上传 ID。
func (c *Client) IndexUpload(ctx context.Context, doc model.GalleryDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := c.es.Index(
		c.index,
		bytes.NewReader(payload),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(doc.UploadID),
		c.es.Index.WithRefresh("false"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("写入相册索引失败: %s, body: %s", res.Status(), string(body))
	}
	return nil
}

// DeleteUpload 从相册索引中移除一条上传。文档不存在时视为成功。
func (c *Client) DeleteUpload(ctx context.Context, uploadID string) error {
	res, err := c.es.Delete(c.index, uploadID, c.es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("删除相册索引文档失败: %s", res.Status())
	}
	return nil
}

// Search 在单个活动范围内按上传者名称检索已通过审核的上传。
func (c *Client) Search(ctx context.Context, eventID, query string, size int) ([]model.GalleryHit, error) {
	if size <= 0 {
		size = 20
	}
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match": map[string]interface{}{
						"uploader_name": query,
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"event_id": eventID},
					},
				},
			},
		},
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.GalleryDocument `json:"_source"`
				Score  float64               `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]model.GalleryHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hits = append(hits, model.GalleryHit{
			UploadID:     h.Source.UploadID,
			EventID:      h.Source.EventID,
			UploaderName: h.Source.UploaderName,
			FileType:     h.Source.FileType,
			FileURL:      h.Source.FileURL,
			ThumbnailURL: h.Source.ThumbnailURL,
			Score:        h.Score,
		})
	}
	return hits, nil
}
