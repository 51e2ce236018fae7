// Package hclplan reads workflow plans written in HCL:
//
//	variable "zone" {
//	  default = "local"
//	}
//
//	locals {
//	  size = 10
//	}
//
//	workflow "scratch-volume" {
//	  type   = "volume"
//	  params = {
//	    size_gib = local.size
//	    zone     = var.zone
//	  }
//	}
//
// A path may name one file or a directory, in which case every .hcl and
// .hcl.json file in it is read.
package hclplan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "locals"},
		{Type: "workflow", LabelNames: []string{"name"}},
	},
}

var variableSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "default"},
		{Name: "type"},
	},
}

var workflowSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "params"},
		{Name: "enabled"},
	},
}

type variable struct {
	name     string
	typ      cty.Type
	value    cty.Value
	set      bool
	declared hcl.Range
}

type Loader struct {
	logger ports.Logger
}

func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger.WithFields(map[string]any{domain.FieldComponent: "hcl_plan"})}
}

// Load parses and evaluates the plan at path. vars override variable
// defaults; each value is converted to the variable's type.
func (l *Loader) Load(ctx context.Context, path string, vars map[string]string) ([]domain.WorkflowSpec, error) {
	logger := l.logger.WithFields(map[string]any{"plan": path})

	files, err := planFiles(path)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	parsed := make([]*hcl.File, 0, len(files))
	var diags hcl.Diagnostics
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var file *hcl.File
		var fileDiags hcl.Diagnostics
		if strings.HasSuffix(f, ".json") {
			file, fileDiags = parser.ParseJSONFile(f)
		} else {
			file, fileDiags = parser.ParseHCLFile(f)
		}
		diags = append(diags, fileDiags...)
		if file != nil {
			parsed = append(parsed, file)
		}
	}
	if diags.HasErrors() {
		return nil, planError("parse", path, diags)
	}

	content, contentDiags := hcl.MergeFiles(parsed).Content(rootSchema)
	if contentDiags.HasErrors() {
		return nil, planError("decode", path, contentDiags)
	}

	variables, varDiags := decodeVariables(content.Blocks)
	if varDiags.HasErrors() {
		return nil, planError("variable", path, varDiags)
	}
	if err := applyOverrides(variables, vars); err != nil {
		return nil, err
	}
	values := make(map[string]cty.Value, len(variables))
	for name, v := range variables {
		if !v.set {
			return nil, apperrors.NewUserFacing(apperrors.CodePlanParseError,
				fmt.Sprintf("variable %q has no default and was not set", name),
				fmt.Sprintf("Pass --var %s=<value> or give the variable a default.", name))
		}
		values[name] = v.value
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var":   cty.ObjectVal(values),
			"local": cty.EmptyObjectVal,
		},
		Functions: functions(),
	}
	locals, localDiags := evaluateLocals(content.Blocks, evalCtx)
	if localDiags.HasErrors() {
		return nil, planError("locals", path, localDiags)
	}
	evalCtx.Variables["local"] = locals

	specs, wfDiags, err := l.decodeWorkflows(ctx, content.Blocks, evalCtx, logger)
	if err != nil {
		return nil, err
	}
	if wfDiags.HasErrors() {
		return nil, planError("workflow", path, wfDiags)
	}
	if len(wfDiags) > 0 {
		logger.Warnf(ctx, "Plan warnings:\n%s", wfDiags.Error())
	}
	logger.Debugf(ctx, "Loaded %d workflows from %d plan files", len(specs), len(parsed))
	return specs, nil
}

func planFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.WrapUserFacing(err, apperrors.CodePlanParseError,
			fmt.Sprintf("cannot read plan %s", path), "Check the --plan path.")
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlanParseError, fmt.Sprintf("cannot list plan directory %s", path))
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && (strings.HasSuffix(e.Name(), ".hcl") || strings.HasSuffix(e.Name(), ".hcl.json")) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, apperrors.NewUserFacing(apperrors.CodePlanParseError,
			fmt.Sprintf("no .hcl or .hcl.json files in %s", path), "Point --plan at a plan file or a directory of them.")
	}
	sort.Strings(files)
	return files, nil
}

func planError(op, path string, diags hcl.Diagnostics) error {
	return apperrors.WrapUserFacing(&DiagnosticsError{Operation: op, Path: path, Diags: diags},
		apperrors.CodePlanParseError, "invalid workflow plan", "Fix the reported plan diagnostics.")
}

func decodeVariables(blocks hcl.Blocks) (map[string]*variable, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	out := map[string]*variable{}
	for _, block := range blocks {
		if block.Type != "variable" {
			continue
		}
		name := block.Labels[0]
		if prev, dup := out[name]; dup {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate variable",
				Detail:   fmt.Sprintf("Variable %q was already declared at %s.", name, prev.declared),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		content, d := block.Body.Content(variableSchema)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}

		v := &variable{name: name, typ: cty.DynamicPseudoType, declared: block.DefRange}
		if attr, ok := content.Attributes["type"]; ok {
			ty, d := typeexpr.TypeConstraint(attr.Expr)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
			v.typ = ty
		}
		if attr, ok := content.Attributes["default"]; ok {
			val, d := attr.Expr.Value(nil)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
			if !v.typ.Equals(cty.DynamicPseudoType) {
				conv, err := convert.Convert(val, v.typ)
				if err != nil {
					diags = diags.Append(&hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Invalid default value",
						Detail:   fmt.Sprintf("Default of %q does not match its type: %s.", name, err),
						Subject:  attr.Expr.Range().Ptr(),
					})
					continue
				}
				val = conv
			}
			v.value, v.set = val, true
		}
		out[name] = v
	}
	return out, diags
}

func applyOverrides(variables map[string]*variable, overrides map[string]string) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, ok := variables[name]
		if !ok {
			return apperrors.NewUserFacing(apperrors.CodePlanParseError,
				fmt.Sprintf("variable %q is not declared in the plan", name),
				"Declare it with a variable block or drop the --var flag.")
		}
		target := v.typ
		if target.Equals(cty.DynamicPseudoType) && v.set && !v.value.IsNull() {
			target = v.value.Type()
		}
		val := cty.StringVal(overrides[name])
		if !target.Equals(cty.DynamicPseudoType) {
			conv, err := convert.Convert(val, target)
			if err != nil {
				return apperrors.WrapUserFacing(err, apperrors.CodePlanParseError,
					fmt.Sprintf("value for variable %q is not a %s", name, target.FriendlyName()),
					"Check the --var value.")
			}
			val = conv
		}
		v.value, v.set = val, true
	}
	return nil
}

// evaluateLocals evaluates locals in passes so that one local may refer
// to another regardless of order.
func evaluateLocals(blocks hcl.Blocks, evalCtx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	pending := map[string]*hcl.Attribute{}
	for _, block := range blocks {
		if block.Type != "locals" {
			continue
		}
		attrs, d := block.Body.JustAttributes()
		diags = append(diags, d...)
		for name, attr := range attrs {
			if prev, dup := pending[name]; dup {
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate local value",
					Detail:   fmt.Sprintf("Local %q was already defined at %s.", name, prev.NameRange),
					Subject:  attr.NameRange.Ptr(),
				})
				continue
			}
			pending[name] = attr
		}
	}
	if diags.HasErrors() || len(pending) == 0 {
		return cty.EmptyObjectVal, diags
	}

	locals := map[string]cty.Value{}
	for len(pending) > 0 {
		var lastDiags hcl.Diagnostics
		progressed := false
		for name, attr := range pending {
			ctx := evalCtx.NewChild()
			ctx.Variables = map[string]cty.Value{"local": cty.ObjectVal(locals)}
			val, d := attr.Expr.Value(ctx)
			if d.HasErrors() {
				lastDiags = append(lastDiags, d...)
				continue
			}
			locals[name] = val
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			return cty.NilVal, append(diags, lastDiags...)
		}
	}
	return cty.ObjectVal(locals), diags
}

func (l *Loader) decodeWorkflows(ctx context.Context, blocks hcl.Blocks, evalCtx *hcl.EvalContext, logger ports.Logger) ([]domain.WorkflowSpec, hcl.Diagnostics, error) {
	var diags hcl.Diagnostics
	var specs []domain.WorkflowSpec
	seen := map[string]hcl.Range{}

	for _, block := range blocks {
		if block.Type != "workflow" {
			continue
		}
		name := block.Labels[0]
		if prev, dup := seen[name]; dup {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate workflow",
				Detail:   fmt.Sprintf("Workflow %q was already defined at %s.", name, prev),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		seen[name] = block.DefRange

		content, d := block.Body.Content(workflowSchema)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}

		if attr, ok := content.Attributes["enabled"]; ok {
			val, d := attr.Expr.Value(evalCtx)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
			enabled, err := convert.Convert(val, cty.Bool)
			if err != nil || enabled.IsNull() {
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid enabled value",
					Detail:   "The enabled attribute must be a boolean.",
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			if enabled.False() {
				logger.Infof(ctx, "Workflow %s is disabled in the plan; skipping", name)
				continue
			}
		}

		typeVal, d := content.Attributes["type"].Expr.Value(evalCtx)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		if typeVal.IsNull() || !typeVal.Type().Equals(cty.String) {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid workflow type",
				Detail:   "The type attribute must be a string.",
				Subject:  content.Attributes["type"].Expr.Range().Ptr(),
			})
			continue
		}

		spec := domain.WorkflowSpec{Name: name, Type: typeVal.AsString(), Params: map[string]any{}}
		if attr, ok := content.Attributes["params"]; ok {
			val, d := attr.Expr.Value(evalCtx)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
			if !val.IsNull() && !(val.Type().IsObjectType() || val.Type().IsMapType()) {
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid workflow params",
					Detail:   "The params attribute must be an object.",
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			goVal, err := toGo(val)
			if err != nil {
				return nil, diags, apperrors.Wrap(&ValueConversionError{Workflow: name, Err: err},
					apperrors.CodePlanParseError, "invalid workflow params")
			}
			if m, ok := goVal.(map[string]any); ok {
				spec.Params = m
			}
		}
		specs = append(specs, spec)
	}
	return specs, diags, nil
}

// ParseVars turns repeated k=v flag values into overrides.
func ParseVars(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, apperrors.NewUserFacing(apperrors.CodeInvalidArgument,
				fmt.Sprintf("invalid --var %q", arg), "Use --var name=value.")
		}
		out[k] = v
	}
	return out, nil
}
