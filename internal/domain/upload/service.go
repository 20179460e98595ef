package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"smarttrack/internal/domain/user"

	"github.com/google/uuid"
)

const StaticURLBase = "/static/uploads"

// AvatarSetter and LogoSetter receive the URL of a stored image.
type AvatarSetter interface {
	SetAvatar(ctx context.Context, userID int64, url string) error
}

type LogoSetter interface {
	SetLogo(ctx context.Context, companyID int64, url string) error
}

// Service saves files to disk and records them in the database.
type Service struct {
	repo       Repository
	baseDir    string
	publicBase string
	avatars    AvatarSetter
	logos      LogoSetter
	now        func() time.Time
}

func NewService(repo Repository, baseDir, publicBase string, avatars AvatarSetter, logos LogoSetter) *Service {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	return &Service{
		repo:       repo,
		baseDir:    baseDir,
		publicBase: strings.TrimRight(publicBase, "/"),
		avatars:    avatars,
		logos:      logos,
		now:        time.Now,
	}
}

// Upload validates r against kind's policy, stores it and applies it to the
// owner's profile or company when the kind calls for that.
func (s *Service) Upload(ctx context.Context, owner *user.User, kind Kind, filename string, r io.Reader) (*Upload, error) {
	policy, ok := PolicyFor(kind)
	if !ok {
		return nil, ErrUnknownKind
	}
	if err := checkRole(owner, kind); err != nil {
		return nil, err
	}

	// Read one byte past the cap to detect oversize without trusting headers.
	data, err := io.ReadAll(io.LimitReader(r, policy.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > policy.MaxSize {
		return nil, ErrFileTooLarge
	}

	mimeType := detectMime(data)
	if !policy.Allowed[mimeType] {
		return nil, ErrInvalidMimeType
	}

	now := s.now().UTC()
	relDir := fmt.Sprintf("%s/%d/%02d", kind, now.Year(), now.Month())
	absDir := filepath.Join(s.baseDir, filepath.FromSlash(relDir))
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	id := uuid.NewString()
	name := id + mimeToExt(mimeType)
	absPath := filepath.Join(absDir, name)
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	relPath := relDir + "/" + name
	url := s.publicBase + StaticURLBase + "/" + relPath
	if policy.Private {
		url = s.publicBase + "/api/uploads/file/" + id + "/content"
	}
	up := &Upload{
		ID:        id,
		OwnerID:   owner.ID,
		Kind:      kind,
		Filename:  sanitizeName(filename),
		MimeType:  mimeType,
		Size:      int64(len(data)),
		Path:      relPath,
		URL:       url,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, up); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("save upload record: %w", err)
	}

	if err := s.apply(ctx, owner, up); err != nil {
		return nil, err
	}
	log.Printf("[upload] stored id=%s kind=%s owner=%d size=%d", up.ID, kind, owner.ID, up.Size)
	return up, nil
}

func (s *Service) apply(ctx context.Context, owner *user.User, up *Upload) error {
	switch up.Kind {
	case KindProfileImage:
		if s.avatars != nil {
			return s.avatars.SetAvatar(ctx, owner.ID, up.URL)
		}
	case KindCompanyLogo:
		if s.logos != nil {
			return s.logos.SetLogo(ctx, owner.TenantID(), up.URL)
		}
	}
	return nil
}

func checkRole(owner *user.User, kind Kind) error {
	switch kind {
	case KindCompanyLogo:
		if owner.Role != user.RoleCompany || owner.TenantID() == 0 {
			return ErrKindForbidden
		}
	case KindDriverImage:
		if owner.Role != user.RoleDriver {
			return ErrKindForbidden
		}
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Upload, error) {
	return s.repo.GetByID(ctx, id)
}

// OpenPublic resolves a path under StaticURLBase to a stored file. Only
// recorded uploads of public kinds are served.
func (s *Service) OpenPublic(ctx context.Context, relPath string) (*Upload, string, error) {
	relPath = strings.TrimPrefix(path.Clean("/"+relPath), "/")
	up, err := s.repo.GetByPath(ctx, relPath)
	if err != nil {
		return nil, "", err
	}
	if p, _ := PolicyFor(up.Kind); p.Private {
		return nil, "", ErrUploadNotFound
	}
	return up, s.abs(up), nil
}

// Open returns the stored file to its owner or to platform staff.
func (s *Service) Open(ctx context.Context, actor *user.User, id string) (*Upload, string, error) {
	up, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if up.OwnerID != actor.ID && !actor.Role.Platform() {
		return nil, "", ErrNotOwner
	}
	return up, s.abs(up), nil
}

func (s *Service) abs(up *Upload) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(up.Path))
}

// Delete removes the file and its record.
func (s *Service) Delete(ctx context.Context, id string, ownerID int64) error {
	up, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if up.OwnerID != ownerID {
		return ErrNotOwner
	}
	_ = os.Remove(s.abs(up))
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]*Upload, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// detectMime sniffs content. SVG is text to the sniffer, so look for the
// root element.
func detectMime(data []byte) string {
	mimeType := strings.Split(http.DetectContentType(data), ";")[0]
	if strings.HasPrefix(mimeType, "text/") {
		head := data
		if len(head) > 1024 {
			head = head[:1024]
		}
		if bytes.Contains(bytes.ToLower(head), []byte("<svg")) {
			return "image/svg+xml"
		}
	}
	return mimeType
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" || name == "." {
		return "file"
	}
	return name
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
