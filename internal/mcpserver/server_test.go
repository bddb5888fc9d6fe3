package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/models"
	"github.com/weblithic/site/internal/testutil"
)

func testServer(t *testing.T) (*Server, *blog.Manager) {
	t.Helper()
	m := testutil.TestManager(t)
	return New(m, "test"), m
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "get_post":
		result, err = srv.getPost(ctx, req)
	case "get_post_by_slug":
		result, err = srv.getPostBySlug(ctx, req)
	case "create_post":
		result, err = srv.createPost(ctx, req)
	case "update_post":
		result, err = srv.updatePost(ctx, req)
	case "delete_post":
		result, err = srv.deletePost(ctx, req)
	case "generate_slug":
		result, err = srv.generateSlug(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode[T any](t *testing.T, r *mcp.CallToolResult) blog.Result[T] {
	t.Helper()
	var res blog.Result[T]
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return res
}

func createArgs() map[string]interface{} {
	return map[string]interface{}{
		"title":    "Hello MCP",
		"excerpt":  "Short",
		"content":  "Body",
		"category": "News",
		"status":   "published",
	}
}

func TestCreateAndGetPost(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_post", createArgs())
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	id := decode[string](t, r).Data
	if id == "" {
		t.Fatal("create returned empty id")
	}

	r = callTool(t, srv, "get_post", map[string]interface{}{"id": id})
	post := decode[models.Post](t, r).Data
	if post.Slug != "hello-mcp" {
		t.Errorf("slug = %q, want %q", post.Slug, "hello-mcp")
	}

	r = callTool(t, srv, "get_post_by_slug", map[string]interface{}{"slug": "hello-mcp"})
	if got := decode[models.Post](t, r).Data.ID; got != id {
		t.Errorf("by slug id = %q, want %q", got, id)
	}
}

func TestCreatePostValidation(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_post", map[string]interface{}{"title": "Only title"})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	res := decode[string](t, r)
	if len(res.Errors) != 3 {
		t.Errorf("errors = %v, want 3 messages", res.Errors)
	}
}

func TestUpdateAndDeletePost(t *testing.T) {
	srv, m := testServer(t)
	id := decode[string](t, callTool(t, srv, "create_post", createArgs())).Data

	r := callTool(t, srv, "update_post", map[string]interface{}{"id": id, "category": "Design"})
	if r.IsError {
		t.Fatalf("update failed: %s", resultText(r))
	}
	if got := m.GetPostByID(t.Context(), id).Data.Category; got != "Design" {
		t.Errorf("category = %q, want Design", got)
	}

	r = callTool(t, srv, "update_post", map[string]interface{}{"id": id})
	if !r.IsError {
		t.Error("expected error for empty update")
	}

	r = callTool(t, srv, "delete_post", map[string]interface{}{"id": id})
	if r.IsError {
		t.Fatalf("delete failed: %s", resultText(r))
	}
	r = callTool(t, srv, "delete_post", map[string]interface{}{"id": id})
	if !r.IsError || !strings.Contains(resultText(r), blog.MsgNotFound) {
		t.Errorf("second delete = %s", resultText(r))
	}
}

func TestListPostsFilters(t *testing.T) {
	srv, m := testServer(t)
	testutil.MustCreate(t, m, testutil.Post("Published", "News", models.StatusPublished))
	testutil.MustCreate(t, m, testutil.Post("Draft", "News", models.StatusDraft))

	r := callTool(t, srv, "list_posts", map[string]interface{}{"status": "published"})
	posts := decode[[]models.Post](t, r).Data
	if len(posts) != 1 || posts[0].Title != "Published" {
		t.Errorf("published posts = %+v", posts)
	}

	r = callTool(t, srv, "list_posts", map[string]interface{}{})
	if got := len(decode[[]models.Post](t, r).Data); got != 2 {
		t.Errorf("all posts = %d, want 2", got)
	}
}

func TestGetPostMissingArgument(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "get_post", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing id")
	}
}

func TestGenerateSlug(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "generate_slug", map[string]interface{}{"title": "Hello, World!"})
	if got := resultText(r); got != "hello-world" {
		t.Errorf("slug = %q, want %q", got, "hello-world")
	}
}

func TestPostFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readPostFormat(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != PostFormatURI {
		t.Fatalf("unexpected resource %+v", contents[0])
	}
	if !strings.Contains(tc.Text, "excerpt") {
		t.Error("format text missing field table")
	}
}
