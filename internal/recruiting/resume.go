package recruiting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxResumeSize is the largest file the backend accepts.
const MaxResumeSize = 10 << 20

const unsupportedResumeType = "仅支持 PDF 和 Word 文档"

var resumeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

type Resume struct {
	ID            string        `json:"id"`
	CandidateID   string        `json:"candidate_id"`
	FilePath      string        `json:"file_path"`
	FileType      string        `json:"file_type"`
	ParsedContent ParsedContent `json:"parsed_content"`
	Tags          []Tag         `json:"tags"`
	CreatedAt     Time          `json:"created_at"`
	UpdatedAt     Time          `json:"updated_at"`
}

func (r Resume) timestamps() map[string]Time {
	return map[string]Time{"created_at": r.CreatedAt, "updated_at": r.UpdatedAt}
}

func (r Resume) HasTags() bool {
	return len(r.Tags) > 0
}

func (r Resume) TagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, tag := range r.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// ResumeFile is a file selected for upload.
type ResumeFile struct {
	Name string
	// ContentType is sniffed from Content when empty.
	ContentType string
	Content     []byte
}

// Progress receives the upload percentage, 0 through 100.
type Progress func(percent int)

func (c *Client) ListResumes(ctx context.Context) ([]Resume, error) {
	var out []Resume
	if err := c.getJSON(ctx, "list resumes", resumesPath, &out); err != nil {
		return nil, err
	}
	warnUnparsedTimes[Resume](c.logger, "list resumes", out...)
	return out, nil
}

// UploadResume sends file as multipart form data for candidateID. The
// backend parses the document and tags it asynchronously.
func (c *Client) UploadResume(ctx context.Context, candidateID string, file ResumeFile, progress Progress) (*Resume, error) {
	const op = "upload resume"

	if strings.TrimSpace(candidateID) == "" {
		return nil, invalid("candidate_id", "请选择候选人", ErrMissingID)
	}
	if _, err := uuid.Parse(candidateID); err != nil {
		return nil, invalid("candidate_id", "候选人ID格式无效", ErrInvalidID)
	}

	contentType, err := c.checkResumeFile(&file)
	if err != nil {
		return nil, err
	}

	body, formType, err := resumeForm(candidateID, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("%s: build form: %w", op, err)
	}

	reader := newProgressReader(body, progress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(resumesPath), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.ContentLength = int64(len(body))

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", formType)

	c.logger.Debug("uploading resume",
		zap.String("candidate_id", candidateID),
		zap.String("file", file.Name),
		zap.String("content_type", contentType),
		zap.Int("size", len(file.Content)),
	)

	var out Resume
	if err := c.do(op, req, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			apiErr.Err = ErrCandidateNotFound
			if !apiErr.FromServer {
				apiErr.Message = "未找到该候选人，请确认候选人信息是否正确"
			}
		}
		return nil, err
	}

	reader.finish()
	return &out, nil
}

func (c *Client) checkResumeFile(file *ResumeFile) (string, error) {
	if len(file.Content) == 0 {
		return "", invalid("file", "文件内容为空", ErrEmptyFile)
	}
	if len(file.Content) > MaxResumeSize {
		return "", invalid("file", "文件大小超过限制（最大10MB）", ErrFileTooLarge)
	}

	contentType := file.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = mimetype.Detect(file.Content).String()
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", invalid("file", unsupportedResumeType, errors.Join(ErrUnsupportedFileType, err))
	}

	if resumeTypes[mediaType] || (c.allowText && mediaType == "text/plain") {
		return mediaType, nil
	}
	return "", invalid("file", unsupportedResumeType, ErrUnsupportedFileType)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func resumeForm(candidateID string, file ResumeFile, contentType string) ([]byte, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("candidate_id", candidateID); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return b.Bytes(), w.FormDataContentType(), nil
}

// progressReader reports how much of the request body has been read.
type progressReader struct {
	mu     sync.Mutex
	r      io.Reader
	total  int
	read   int
	last   int
	report Progress
}

func newProgressReader(body []byte, report Progress) *progressReader {
	p := &progressReader{r: bytes.NewReader(body), total: len(body), last: -1, report: report}
	p.emit(0)
	return p
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.read += n
	if p.total > 0 {
		p.emit(p.read * 100 / p.total)
	}
	return n, err
}

func (p *progressReader) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emit(100)
}

func (p *progressReader) emit(percent int) {
	if p.report == nil || percent == p.last {
		return
	}
	p.last = percent
	p.report(percent)
}
