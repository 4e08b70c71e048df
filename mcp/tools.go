package mcp

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/ka2n/fhirval/api"
	"github.com/ka2n/fhirval/api/batch"
	"github.com/ka2n/fhirval/api/catalog"
	"github.com/ka2n/fhirval/api/render"
	"github.com/ka2n/fhirval/api/result"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/morikuni/failure/v2"
)

var validate = validator.New()

func InitTools(svc *api.Service) []server.ServerTool {
	return []server.ServerTool{
		newServerTool(ValidateResource(svc)),
		newServerTool(ListProfiles(svc)),
	}
}

func decode(ctx context.Context, in map[string]interface{}, out any) error {
	if err := mapstructure.Decode(in, out); err != nil {
		return err
	}
	return validate.StructCtx(ctx, out)
}

func toolError(err error) *mcp.CallToolResult {
	if msg := failure.MessageOf(err); msg != "" {
		return mcp.NewToolResultError(msg.String())
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func ValidateResource(svc *api.Service) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"validate_resource",
			mcp.WithDescription("Validate a FHIR JSON resource with the server's $validate operation and return error, warning and information counts"),
			mcp.WithString("text", mcp.Description("Resource JSON. Either text or path is required")),
			mcp.WithString("path", mcp.Description("Path to a resource JSON file")),
			mcp.WithString("profile", mcp.Description("StructureDefinition URL; defaults to the resource's meta.profile")),
			mcp.WithBoolean("detail", mcp.Description("Include every issue rendered as markdown")),
			mcp.WithString("severity", mcp.Description("Only include issues of this severity in the detail (error, warning, info)")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type ToolArguments struct {
				Text     string `mapstructure:"text" validate:"required_without=Path"`
				Path     string `mapstructure:"path" validate:"required_without=Text"`
				Profile  string `mapstructure:"profile" validate:"omitempty,url"`
				Detail   bool   `mapstructure:"detail"`
				Severity string `mapstructure:"severity" validate:"omitempty,oneof=error warning info"`
			}
			var args ToolArguments
			if err := decode(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			var f batch.InputFile = batch.BytesFile{FileName: "text", Data: []byte(args.Text)}
			if args.Path != "" {
				f = batch.PathFile(args.Path)
			}

			s := svc
			if args.Profile != "" {
				s = svc.WithProfile(args.Profile)
			}
			row, err := s.ValidateOne(ctx, f)
			if err != nil {
				return toolError(err), nil
			}

			type Response struct {
				result.Row
				Detail string `json:"detail,omitempty"`
			}
			resp := Response{Row: row}

			if args.Detail {
				filter, err := render.ParseFilter(args.Severity)
				if err != nil {
					return toolError(err), nil
				}
				o, err := s.NewSink().Detail(ctx, row)
				if err != nil {
					return toolError(err), nil
				}
				md, err := s.Renderer.Markdown(o, filter)
				if err != nil {
					md = render.ErrorText(err)
				}
				resp.Detail = md
			}

			return jsonResult(resp)
		}
}

func ListProfiles(svc *api.Service) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"list_profiles",
			mcp.WithDescription("List the StructureDefinition profiles the FHIR server can validate against"),
			mcp.WithBoolean("refresh", mcp.Description("Ignore the cached list")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type ToolArguments struct {
				Refresh bool `mapstructure:"refresh"`
			}
			var args ToolArguments
			if err := decode(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			profiles, err := svc.Catalog.Fetch(ctx, args.Refresh)
			if err != nil {
				return toolError(err), nil
			}
			if profiles == nil {
				profiles = []catalog.Profile{}
			}
			return jsonResult(profiles)
		}
}
