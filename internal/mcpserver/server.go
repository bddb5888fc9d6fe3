// Package mcpserver exposes the blog over MCP (Model Context Protocol) on
// stdio so LLM clients can draft and publish posts.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/models"
)

// Server wraps the MCP server with blog tools.
type Server struct {
	mcp     *server.MCPServer
	manager *blog.Manager
}

// New creates an MCP server with every blog tool registered.
func New(manager *blog.Manager, version string) *Server {
	s := &Server{manager: manager}

	s.mcp = server.NewMCPServer(
		"Weblithic",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts, newest first. Optionally filter by status and category."),
		mcp.WithString("status", mcp.Description("draft or published"), mcp.Enum("draft", "published")),
		mcp.WithString("category", mcp.Description("Exact category name")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Read one post by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post ID")),
	), s.getPost)

	s.mcp.AddTool(mcp.NewTool("get_post_by_slug",
		mcp.WithDescription("Read a post by slug, in any status. Does not count a view."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("URL slug")),
	), s.getPostBySlug)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a post. Read the "+PostFormatURI+" resource for field rules."),
		mcp.WithString("title", mcp.Required()),
		mcp.WithString("excerpt", mcp.Required(), mcp.Description("At most 250 characters")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
		mcp.WithString("category", mcp.Required()),
		mcp.WithString("status", mcp.Enum("draft", "published")),
		mcp.WithString("slug", mcp.Description("Optional; derived from the title when omitted")),
	), s.createPost)

	s.mcp.AddTool(mcp.NewTool("update_post",
		mcp.WithDescription("Change the given fields of a post. Omitted fields are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post ID")),
		mcp.WithString("title"),
		mcp.WithString("excerpt"),
		mcp.WithString("content"),
		mcp.WithString("category"),
		mcp.WithString("status", mcp.Enum("draft", "published")),
		mcp.WithString("slug"),
	), s.updatePost)

	s.mcp.AddTool(mcp.NewTool("delete_post",
		mcp.WithDescription("Delete a post by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post ID")),
	), s.deletePost)

	s.mcp.AddTool(mcp.NewTool("generate_slug",
		mcp.WithDescription("Preview the slug derived from a title."),
		mcp.WithString("title", mcp.Required()),
	), s.generateSlug)

	s.mcp.AddResource(
		mcp.NewResource(PostFormatURI, "Post Format",
			mcp.WithResourceDescription("Post fields, validation rules and the content directory file format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormat,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// toolResult renders an envelope as indented JSON, flagged as an error when
// the operation failed.
func toolResult[T any](res blog.Result[T]) *mcp.CallToolResult {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	if !res.Success {
		return mcp.NewToolResultError(string(out))
	}
	return mcp.NewToolResultText(string(out))
}

// postInput reads the optional post fields from the request arguments.
func postInput(req mcp.CallToolRequest) models.PostInput {
	args := req.GetArguments()
	str := func(key string) *string {
		if v, ok := args[key].(string); ok {
			return &v
		}
		return nil
	}
	in := models.PostInput{
		Title:    str("title"),
		Excerpt:  str("excerpt"),
		Content:  str("content"),
		Category: str("category"),
		Slug:     str("slug"),
	}
	if st := str("status"); st != nil {
		in.Status = models.Ptr(models.Status(*st))
	}
	return in
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := models.PostFilter{
		Status:   models.Status(req.GetString("status", "")),
		Category: req.GetString("category", ""),
	}
	return toolResult(s.manager.GetAllPosts(ctx, filter)), nil
}

func (s *Server) getPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(s.manager.GetPostByID(ctx, id)), nil
}

func (s *Server) getPostBySlug(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(s.manager.LookupSlug(ctx, slug)), nil
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.manager.CreatePost(ctx, postInput(req))), nil
}

func (s *Server) updatePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := postInput(req)
	if in.Empty() {
		return mcp.NewToolResultError("no fields to update"), nil
	}
	return toolResult(s.manager.UpdatePost(ctx, id, in)), nil
}

func (s *Server) deletePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(s.manager.DeletePost(ctx, id)), nil
}

func (s *Server) generateSlug(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(blog.GenerateSlug(title)), nil
}

func (s *Server) readPostFormat(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PostFormatURI,
			MIMEType: "text/markdown",
			Text:     PostFormat,
		},
	}, nil
}
