package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"ai-research-kb/pkg/apperror/status"
	"ai-research-kb/pkg/logger"
	s3client "ai-research-kb/pkg/s3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ledongthuc/pdf"
)

// LoadDocuments reads every supported file under the knowledge-base root
// (local directory or s3:// prefix) into normalized documents. The category
// is inferred from the first path segment relative to the root; files at the
// root itself fall into "default". Unreadable files are skipped with a
// warning unless strict is set, in which case the first failure aborts the
// load.
func LoadDocuments(ctx context.Context, kbRoot string, strict bool) ([]Document, error) {
	if strings.HasPrefix(kbRoot, "s3://") {
		return loadFromS3(ctx, kbRoot, strict)
	}
	return loadFromDir(kbRoot, strict)
}

func loadFromDir(root string, strict bool) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if strict {
				return status.New(status.DocumentUnreadable, err)
			}
			logger.Error(err, "loader: skipping unreadable path: %s", path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !supportedFile(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		loaded, loadErr := loadFile(path, path, inferCategory(rel))
		if loadErr != nil {
			if strict {
				return status.New(status.DocumentUnreadable, fmt.Errorf("load %s: %w", path, loadErr))
			}
			logger.Error(loadErr, "loader: skipping unreadable document: %s", path)
			return nil
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func loadFromS3(ctx context.Context, kbRoot string, strict bool) ([]Document, error) {
	u, err := url.Parse(kbRoot)
	if err != nil {
		return nil, err
	}
	bucket := u.Host
	prefix := strings.TrimPrefix(u.Path, "/")

	cli, err := s3client.GetClient()
	if err != nil {
		return nil, status.New(status.CollaboratorVector, err)
	}

	var docs []Document
	var token *string
	for {
		out, err := cli.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if !supportedFile(key) {
				continue
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
			source := fmt.Sprintf("s3://%s/%s", bucket, key)
			loaded, loadErr := loadS3Object(ctx, cli, bucket, key, source, inferCategory(rel))
			if loadErr != nil {
				if strict {
					return nil, status.New(status.DocumentUnreadable, fmt.Errorf("load %s: %w", source, loadErr))
				}
				logger.Error(loadErr, "loader: skipping unreadable document: %s", source)
				continue
			}
			docs = append(docs, loaded...)
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return docs, nil
}

// loadS3Object downloads one object to a temp file and reuses the local
// extraction path, keeping the s3:// URL as the document source.
func loadS3Object(ctx context.Context, cli *s3.Client, bucket, key, source, category string) ([]Document, error) {
	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp("", "kb-*"+filepath.Ext(key))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()
	return loadFile(tmp.Name(), source, category)
}

// inferCategory takes the top-level segment of the relative path.
func inferCategory(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return "default"
}

func supportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf", ".csv":
		return true
	}
	return false
}

func loadFile(path, source, category string) ([]Document, error) {
	meta := map[string]any{MetaSource: source, MetaCategory: category}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path, meta)
	case ".csv":
		return loadCSV(path, meta)
	default:
		return loadText(path, meta)
	}
}

func loadText(path string, meta map[string]any) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := Normalize(string(data))
	if content == "" {
		return nil, nil
	}
	return []Document{NewDocument(content, meta)}, nil
}

// loadPDF extracts one document per page so page numbers survive into chunk
// metadata.
func loadPDF(path string, meta map[string]any) ([]Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		content := Normalize(text)
		if content == "" {
			continue
		}
		doc := NewDocument(content, meta)
		doc.Metadata[MetaPage] = i
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, errors.New("no extractable text")
	}
	return docs, nil
}

// loadCSV emits one document per row, rendered as "header: value" lines.
func loadCSV(path string, meta map[string]any) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var docs []Document
	row := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		var lines []string
		for i, field := range record {
			name := fmt.Sprintf("column_%d", i)
			if i < len(header) {
				name = header[i]
			}
			lines = append(lines, name+": "+field)
		}
		content := Normalize(strings.Join(lines, "\n"))
		if content == "" {
			row++
			continue
		}
		doc := NewDocument(content, meta)
		doc.Metadata[MetaPage] = row
		docs = append(docs, doc)
		row++
	}
	return docs, nil
}
