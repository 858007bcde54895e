package service

import (
	"context"
	"log/slog"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"
	"postboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultImageMaxSizeKB is the upload limit when none is configured.
const DefaultImageMaxSizeKB = 2048

var imageExtensions = []string{"jpeg", "png", "jpg", "gif"}

// ImageStore persists image files by bare filename.
type ImageStore interface {
	NewFilename(original string) string
	Save(name string, data []byte) error
	Remove(name string) error
}

// ImageUpload is an uploaded file as received.
type ImageUpload struct {
	Filename string
	Content  []byte
}

// PostInput carries the fields of a create or update request. A nil field
// was not sent.
type PostInput struct {
	Title       *string
	Description *string
	Image       *ImageUpload
}

type PostService struct {
	posts     repository.PostRepository
	images    ImageStore
	maxSizeKB int
}

func NewPostService(posts repository.PostRepository, images ImageStore, maxSizeKB int) *PostService {
	if maxSizeKB <= 0 {
		maxSizeKB = DefaultImageMaxSizeKB
	}
	return &PostService{posts: posts, images: images, maxSizeKB: maxSizeKB}
}

func textInput(field string, v *string) validation.Input {
	in := validation.Input{Field: field}
	if v != nil {
		in.Present = true
		in.Value = *v
	}
	return in
}

func imageInput(img *ImageUpload) validation.Input {
	in := validation.Input{Field: "image"}
	if img == nil {
		return in
	}
	head := img.Content
	if len(head) > 512 {
		head = head[:512]
	}
	in.Present = true
	in.File = &validation.File{Filename: img.Filename, Size: int64(len(img.Content)), Head: head}
	return in
}

func (s *PostService) validate(in PostInput, partial bool) error {
	return validation.Check(
		validation.Field{
			Input:     textInput("title", in.Title),
			Rules:     []validation.Rule{validation.Required(), validation.MaxLen(255)},
			Sometimes: partial,
		},
		validation.Field{
			Input:     textInput("description", in.Description),
			Rules:     []validation.Rule{validation.Required()},
			Sometimes: partial,
		},
		validation.Field{
			Input: imageInput(in.Image),
			Rules: []validation.Rule{
				validation.Image(),
				validation.Mimes(imageExtensions...),
				validation.MaxKB(s.maxSizeKB),
			},
			Nullable: true,
		},
	)
}

// storeImage writes img under a fresh name and returns that name.
func (s *PostService) storeImage(img *ImageUpload) (string, error) {
	name := s.images.NewFilename(img.Filename)
	if err := s.images.Save(name, img.Content); err != nil {
		return "", models.NewInternalError(err)
	}
	return name, nil
}

func (s *PostService) discardImage(ctx context.Context, name string) {
	if err := s.images.Remove(name); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove image file",
			slog.String("image", name), slog.String("error", err.Error()))
	}
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	return s.posts.List(ctx)
}

// Create validates in, stores the image if one was sent, then creates the
// record. The stored image is removed again if the record cannot be written.
func (s *PostService) Create(ctx context.Context, in PostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Create")
	defer func() { observability.EndSpan(span, err) }()

	if err := s.validate(in, false); err != nil {
		return nil, err
	}

	post = &models.Post{Title: *in.Title, Description: *in.Description}
	if in.Image != nil && len(in.Image.Content) > 0 {
		name, err := s.storeImage(in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = &name
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.HasImage() {
			s.discardImage(ctx, *post.Image)
		}
		return nil, err
	}

	middleware.PostMutations.WithLabelValues("create").Inc()
	span.SetAttributes(attribute.Int("post.id", int(post.ID)))
	return post, nil
}

// Show returns one post.
func (s *PostService) Show(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Update applies the fields present in in. A new image replaces the old one:
// the new file is written, the record updated, and only then is the old file
// removed.
func (s *PostService) Update(ctx context.Context, id uint, in PostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Update", attribute.Int("post.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(in, true); err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Description != nil {
		post.Description = *in.Description
	}

	var oldImage, newImage string
	if in.Image != nil && len(in.Image.Content) > 0 {
		newImage, err = s.storeImage(in.Image)
		if err != nil {
			return nil, err
		}
		if post.HasImage() {
			oldImage = *post.Image
		}
		post.Image = &newImage
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if newImage != "" {
			s.discardImage(ctx, newImage)
		}
		return nil, err
	}
	if oldImage != "" && oldImage != newImage {
		s.discardImage(ctx, oldImage)
	}

	middleware.PostMutations.WithLabelValues("update").Inc()
	return s.posts.GetByID(ctx, id)
}

// Delete removes the post's image file, then the record.
func (s *PostService) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Delete", attribute.Int("post.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.HasImage() {
		if err := s.images.Remove(*post.Image); err != nil {
			return models.NewInternalError(err)
		}
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	middleware.PostMutations.WithLabelValues("delete").Inc()
	return nil
}
