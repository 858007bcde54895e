package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// jsonField returns nil when key was not sent. A key sent as null or as a
// non-string value is present, so the field rules still run against it.
func jsonField(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		v = string(raw)
	}
	return &v
}

// readPostInput collects the fields that were actually sent. Both JSON and
// form bodies use key presence.
func readPostInput(c *fiber.Ctx) (service.PostInput, error) {
	var in service.PostInput
	ct := strings.ToLower(string(c.Request().Header.ContentType()))

	switch {
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return in, err
		}
		if v, ok := form.Value["title"]; ok && len(v) > 0 {
			in.Title = &v[0]
		}
		if v, ok := form.Value["description"]; ok && len(v) > 0 {
			in.Description = &v[0]
		}
		if files := form.File["image"]; len(files) > 0 {
			img, err := readUpload(files[0])
			if err != nil {
				return in, err
			}
			in.Image = img
		} else if v := form.Value["image"]; len(v) > 0 && v[0] != "" {
			// A non-file value under "image" fails the image rules.
			in.Image = &service.ImageUpload{Content: []byte(v[0])}
		}

	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
		args := c.Request().PostArgs()
		if args.Has("title") {
			v := string(args.Peek("title"))
			in.Title = &v
		}
		if args.Has("description") {
			v := string(args.Peek("description"))
			in.Description = &v
		}
		if v := args.Peek("image"); len(v) > 0 {
			in.Image = &service.ImageUpload{Content: append([]byte(nil), v...)}
		}

	default:
		if len(c.Body()) == 0 {
			return in, nil
		}
		var fields map[string]json.RawMessage
		if err := c.BodyParser(&fields); err != nil {
			return in, err
		}
		in.Title = jsonField(fields, "title")
		in.Description = jsonField(fields, "description")
	}

	return in, nil
}

func readUpload(fh *multipart.FileHeader) (*service.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &service.ImageUpload{Filename: fh.Filename, Content: content}, nil
}

// ListPosts handles GET /api/posts
// @Summary List posts
// @Description All posts, newest first.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.Post}
// @Failure 401 {object} models.Envelope
// @Failure 500 {object} models.Envelope
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.postService.List(c.UserContext())
	if err != nil {
		return s.respondInternal(c, "Failed to retrieve posts", err)
	}
	return respondSuccess(c, fiber.StatusOK, "Posts retrieved successfully", posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title (max 255)"
// @Param description formData string true "Description"
// @Param image formData file false "jpeg, png, jpg or gif, max 2048 KB"
// @Success 201 {object} models.Envelope{data=models.Post}
// @Failure 401 {object} models.Envelope
// @Failure 422 {object} models.Envelope{errors=map[string][]string}
// @Failure 500 {object} models.Envelope
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in, err := readPostInput(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	post, err := s.postService.Create(c.UserContext(), in)
	if err != nil {
		return s.respondPostError(c, err, "Failed to create post")
	}
	return respondSuccess(c, fiber.StatusCreated, "Post created successfully", post)
}

// ShowPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.Post}
// @Failure 401 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /posts/{id} [get]
func (s *Server) ShowPost(c *fiber.Ctx) error {
	id, err := parsePostID(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.Show(c.UserContext(), id)
	if err != nil {
		return s.respondPostError(c, err, "Failed to retrieve post")
	}
	return respondSuccess(c, fiber.StatusOK, "Post retrieved successfully", post)
}

// UpdatePost handles PUT and PATCH /api/posts/:id
// @Summary Update a post
// @Description Only the fields sent are validated and applied. A new image replaces the old file.
// @Tags posts
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param title formData string false "Title (max 255)"
// @Param description formData string false "Description"
// @Param image formData file false "jpeg, png, jpg or gif, max 2048 KB"
// @Success 200 {object} models.Envelope{data=models.Post}
// @Failure 401 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Failure 422 {object} models.Envelope{errors=map[string][]string}
// @Router /posts/{id} [put]
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parsePostID(c)
	if err != nil {
		return nil
	}

	in, err := readPostInput(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	post, err := s.postService.Update(c.UserContext(), id, in)
	if err != nil {
		return s.respondPostError(c, err, "Failed to update post")
	}
	return respondSuccess(c, fiber.StatusOK, "Post updated successfully", post)
}

// SpoofedUpdatePost handles POST /api/posts/:id carrying _method=PUT|PATCH|DELETE,
// for clients that can only send multipart bodies with POST.
func (s *Server) SpoofedUpdatePost(c *fiber.Ctx) error {
	method := c.FormValue("_method")
	if method == "" {
		method = c.Get("X-HTTP-Method-Override")
	}

	switch strings.ToUpper(method) {
	case fiber.MethodPut, fiber.MethodPatch:
		return s.UpdatePost(c)
	case fiber.MethodDelete:
		return s.DeletePost(c)
	default:
		return respondError(c, fiber.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Removes the post and its image file.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parsePostID(c)
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), id); err != nil {
		return s.respondPostError(c, err, "Failed to delete post")
	}
	return respondSuccess(c, fiber.StatusOK, "Post deleted successfully", nil)
}
