package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadDirFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func decodePost(t *testing.T, env envelope) models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))
	return post
}

func TestPostCRUD(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "alice@example.com", "secret1")

	resp, env := ts.doMultipart(t, http.MethodPost, "/api/posts",
		map[string]string{"title": "Hello", "description": "World"},
		&formFile{field: "image", name: "cat.png", content: pngBytes}, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)
	assert.Equal(t, "Post created successfully", env.Message)
	created := decodePost(t, env)
	require.True(t, created.HasImage())
	assert.Equal(t, []string{*created.Image}, uploadDirFiles(t, ts.cfg.UploadDir))

	// The stored image is served statically.
	resp, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/upload/"+*created.Image, nil), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	path := fmt.Sprintf("/api/posts/%d", created.ID)

	resp, env = ts.doJSON(t, http.MethodGet, path, nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello", decodePost(t, env).Title)

	resp, env = ts.doMultipart(t, http.MethodPut, path,
		map[string]string{"title": "Hello again"},
		&formFile{field: "image", name: "dog.gif", content: []byte("GIF89a\x01\x00\x01\x00")}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	updated := decodePost(t, env)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "World", updated.Description)
	require.True(t, updated.HasImage())
	assert.NotEqual(t, *created.Image, *updated.Image)
	assert.Equal(t, []string{*updated.Image}, uploadDirFiles(t, ts.cfg.UploadDir))

	resp, env = ts.doJSON(t, http.MethodDelete, path, nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Post deleted successfully", env.Message)
	assert.Empty(t, env.Data)
	assert.Empty(t, uploadDirFiles(t, ts.cfg.UploadDir))

	resp, env = ts.doJSON(t, http.MethodGet, path, nil, token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Post not found", env.Message)

	resp, _ = ts.doJSON(t, http.MethodDelete, path, nil, token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreatePost_ValidationPersistsNothing(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "alice@example.com", "secret1")

	resp, env := ts.doMultipart(t, http.MethodPost, "/api/posts",
		map[string]string{"description": "no title"},
		&formFile{field: "image", name: "cat.png", content: pngBytes}, token)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Equal(t, []string{"The title field is required."}, env.Errors["title"])

	resp, env = ts.doMultipart(t, http.MethodPost, "/api/posts",
		map[string]string{"title": strings.Repeat("t", 256), "description": "d"},
		&formFile{field: "image", name: "notes.txt", content: []byte("plain text")}, token)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, []string{"The title field must not be greater than 255 characters."}, env.Errors["title"])
	assert.Contains(t, env.Errors["image"], "The image field must be an image.")

	var count int64
	require.NoError(t, ts.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, uploadDirFiles(t, ts.cfg.UploadDir))
}

func TestUpdatePost_JSONPartialAndMethodSpoofing(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "alice@example.com", "secret1")

	resp, env := ts.doJSON(t, http.MethodPost, "/api/posts",
		map[string]string{"title": "Hello", "description": "World"}, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decodePost(t, env)
	assert.False(t, created.HasImage())
	path := fmt.Sprintf("/api/posts/%d", created.ID)

	resp, env = ts.doJSON(t, http.MethodPatch, path, map[string]string{"description": "Changed"}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello", decodePost(t, env).Title)
	assert.Equal(t, "Changed", decodePost(t, env).Description)

	resp, env = ts.doJSON(t, http.MethodPut, path, map[string]string{"title": ""}, token)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, []string{"The title field is required."}, env.Errors["title"])

	// A key sent as null is present and must satisfy its rules.
	resp, env = ts.doJSON(t, http.MethodPut, path, map[string]any{"title": nil, "description": nil}, token)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, []string{"The title field is required."}, env.Errors["title"])
	assert.Equal(t, []string{"The description field is required."}, env.Errors["description"])

	resp, env = ts.doJSON(t, http.MethodGet, path, nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello", decodePost(t, env).Title)

	resp, env = ts.doMultipart(t, http.MethodPost, path,
		map[string]string{"_method": "PUT", "title": "Spoofed"},
		&formFile{field: "image", name: "cat.png", content: pngBytes}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	spoofed := decodePost(t, env)
	assert.Equal(t, "Spoofed", spoofed.Title)
	assert.True(t, spoofed.HasImage())

	resp, _ = ts.doMultipart(t, http.MethodPost, path, map[string]string{"title": "x"}, nil, token)
	assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = ts.doJSON(t, http.MethodPut, "/api/posts/9999", map[string]string{"title": "x"}, token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = ts.doJSON(t, http.MethodGet, "/api/posts/abc", nil, token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListPosts_NewestFirst(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "alice@example.com", "secret1")

	resp, env := ts.doJSON(t, http.MethodGet, "/api/posts", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(env.Data))

	for _, title := range []string{"first", "second", "third"} {
		resp, _ := ts.doJSON(t, http.MethodPost, "/api/posts",
			map[string]string{"title": title, "description": "d"}, token)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, env = ts.doJSON(t, http.MethodGet, "/api/posts", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Posts retrieved successfully", env.Message)

	var posts []models.Post
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{posts[0].Title, posts[1].Title, posts[2].Title})
}
