package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/linarqa/linarqa-web/internal/apiclient"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

// Owner is the resource a photo belongs to.
type Owner string

const (
	OwnerStudent      Owner = "students"
	OwnerExtraStudent Owner = "extra-students"
)

const (
	uploadField           = "file"
	enrollmentUploadPath  = "/enrollments/upload-photo"
	enrollmentCameraPath  = "/enrollments/upload-camera-photo"
	photoURLResponseField = "photoUrl"
)

type requester interface {
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	PostMultipart(ctx context.Context, path string, file apiclient.File, out any) error
}

// Service sends validated photos to the school API. Invalid input never
// reaches the network.
type Service struct {
	api  requester
	proc *Processor
}

func NewService(api requester, proc *Processor) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api requester required")
	}
	if proc == nil {
		return nil, fmt.Errorf("photo processor required")
	}
	return &Service{api: api, proc: proc}, nil
}

type photoURLBody struct {
	PhotoURL string `json:"photoUrl"`
}

type cameraBody struct {
	Base64Data string `json:"base64Data"`
}

// SetPhotoURL points the owner's photo at an external URL.
func (s *Service) SetPhotoURL(ctx context.Context, owner Owner, id, rawURL string) error {
	clean, err := s.proc.ValidateURL(rawURL)
	if err != nil {
		return err
	}
	return s.api.Patch(ctx, ownerPath(owner, id, "photo"), photoURLBody{PhotoURL: clean}, nil)
}

// UploadFile uploads a picked file as the owner's photo.
func (s *Service) UploadFile(ctx context.Context, owner Owner, id string, r io.Reader, filename string) error {
	photo, err := s.proc.Prepare(r, filename)
	if err != nil {
		return err
	}
	return s.api.PostMultipart(ctx, ownerPath(owner, id, "upload-photo"), multipartFile(photo), nil)
}

// UploadCamera uploads a camera capture as the owner's photo.
func (s *Service) UploadCamera(ctx context.Context, owner Owner, id, dataURL string) error {
	photo, err := s.proc.PrepareDataURL(dataURL)
	if err != nil {
		return err
	}
	return s.api.Post(ctx, ownerPath(owner, id, "upload-camera-photo"), cameraBody{Base64Data: photo.DataURL()}, nil)
}

// UploadForEnrollment stores a photo before the student exists and returns
// its URL for the registration form.
func (s *Service) UploadForEnrollment(ctx context.Context, r io.Reader, filename string) (string, error) {
	photo, err := s.proc.Prepare(r, filename)
	if err != nil {
		return "", err
	}
	var resp map[string]any
	if err := s.api.PostMultipart(ctx, enrollmentUploadPath, multipartFile(photo), &resp); err != nil {
		return "", err
	}
	return photoURLFrom(resp)
}

func (s *Service) CaptureForEnrollment(ctx context.Context, dataURL string) (string, error) {
	photo, err := s.proc.PrepareDataURL(dataURL)
	if err != nil {
		return "", err
	}
	var resp map[string]any
	if err := s.api.Post(ctx, enrollmentCameraPath, cameraBody{Base64Data: photo.DataURL()}, &resp); err != nil {
		return "", err
	}
	return photoURLFrom(resp)
}

func ownerPath(owner Owner, id, action string) string {
	return fmt.Sprintf("/%s/%s/%s", owner, url.PathEscape(id), action)
}

func multipartFile(photo *Photo) apiclient.File {
	return apiclient.File{
		Field:       uploadField,
		Filename:    photo.Filename,
		ContentType: photo.ContentType,
		Content:     bytes.NewReader(photo.Data),
	}
}

func photoURLFrom(resp map[string]any) (string, error) {
	if v, ok := resp[photoURLResponseField].(string); ok && v != "" {
		return v, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeDependency, "upload response has no photo url")
}
