package handlers

import (
	"context"
	"fmt"

	"DocMCP/internal/modules/document/infrastructure/mcp/registry"
	"DocMCP/internal/modules/document/infrastructure/mcp/types"
)

const ToolCourseRecommender = "courseRecommender"

// CourseToolHandler 落地页演示用的课程推荐工具
type CourseToolHandler struct{}

func NewCourseToolHandler() *CourseToolHandler {
	return &CourseToolHandler{}
}

func (h *CourseToolHandler) RegisterTools(reg *registry.ToolRegistry) error {
	return reg.Register(types.ToolDefinition{
		Name:        ToolCourseRecommender,
		Description: "Recommend courses based on the user's interests",
		Fields: []types.Field{
			{
				Name:     "experienceLevel",
				Type:     types.TypeString,
				Required: true,
				Enum:     []string{"beginner", "intermediate"},
			},
		},
	}, h.handleRecommend)
}

func (h *CourseToolHandler) handleRecommend(ctx context.Context, args types.Args) (*types.Result, error) {
	course := "Nextjs"
	if args.String("experienceLevel") == "beginner" {
		course = "Beginner JS"
	}
	return &types.Result{
		Text:    fmt.Sprintf("I recommend you take the %s course", course),
		Success: true,
	}, nil
}
