package controller

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formflow/pkg/model"
)

var richTextPolicy = bluemonday.UGCPolicy()

func base(in Input) Output {
	return Output{
		Descriptor: in.Descriptor,
		Name:       in.Descriptor.Name,
		Value:      in.Value,
		OnChange:   in.OnChange,
		OnBlur:     in.OnBlur,
		Options:    in.Options,
		Loading:    in.Loading,
		Disabled:   in.Loading,
		Error:      in.Error,
	}
}

func emit(in Input, value any) {
	if in.OnChange != nil {
		in.OnChange(value)
	}
}

func passthroughEditor(in Input) Output {
	return base(in)
}

func textEditor(in Input) Output {
	out := base(in)
	out.Value = asString(in.Value)
	limit := in.Descriptor.MaxLength
	out.OnChange = func(value any) {
		text := asString(value)
		if limit > 0 && utf8.RuneCountInString(text) > limit {
			text = string([]rune(text)[:limit])
		}
		emit(in, text)
	}
	return out
}

// numberEditor stores float64 values. Empty input clears the field;
// unparseable input is dropped so a half-typed value never reaches the form.
func numberEditor(in Input) Output {
	out := base(in)
	if n, ok := asNumber(in.Value); ok {
		out.Value = n
	} else {
		out.Value = nil
	}
	out.OnChange = func(value any) {
		if value == nil || strings.TrimSpace(asString(value)) == "" {
			emit(in, nil)
			return
		}
		if n, ok := asNumber(value); ok {
			emit(in, n)
		}
	}
	return out
}

func checkboxEditor(in Input) Output {
	out := base(in)
	out.Value = asBool(in.Value)
	out.OnChange = func(value any) {
		emit(in, asBool(value))
	}
	return out
}

func selectEditor(in Input) Output {
	out := base(in)
	if in.Descriptor.Multiple {
		return multiSelectEditor(in)
	}
	if _, isList := in.Value.([]any); isList {
		out.Value = nil
	}
	return out
}

func multiSelectEditor(in Input) Output {
	out := base(in)
	out.Value = asList(in.Value)
	out.OnChange = func(value any) {
		emit(in, asList(value))
	}
	return out
}

func groupCheckboxEditor(in Input) Output {
	out := base(in)
	current, _ := in.Value.(map[string]any)
	snapshot := make(map[string]any, len(in.Descriptor.GroupCheckbox))
	for _, child := range in.Descriptor.GroupCheckbox {
		snapshot[child.Name] = asBool(current[child.Name])
	}
	out.Value = snapshot

	toggles := make([]Toggle, 0, len(in.Descriptor.GroupCheckbox))
	for _, child := range in.Descriptor.GroupCheckbox {
		name := child.Name
		label := child.Label
		if label == "" {
			label = name
		}
		toggles = append(toggles, Toggle{
			Name:  name,
			Label: label,
			Value: asBool(snapshot[name]),
			OnChange: func(checked bool) {
				next := latestGroupValue(in, snapshot)
				next[name] = checked
				emit(in, next)
			},
		})
	}
	out.Toggles = toggles
	return out
}

// latestGroupValue copies the committed group map so consecutive toggles on
// the same rendered output do not drop each other.
func latestGroupValue(in Input, snapshot map[string]any) map[string]any {
	source := snapshot
	if in.Form != nil {
		if value, ok := in.Form.Value(in.Descriptor.Name); ok {
			if committed, isMap := value.(map[string]any); isMap {
				source = committed
			}
		}
	}
	next := make(map[string]any, len(source))
	for k, v := range source {
		next[k] = v
	}
	return next
}

func nodeEditor(in Input) Output {
	out := base(in)
	out.OnChange = nil
	out.OnBlur = nil
	out.Value = nil
	switch {
	case in.Descriptor.Render != nil:
		out.Node = in.Descriptor.Render(in.Form)
	default:
		out.Node = in.Descriptor.Node
	}
	return out
}

func dateEditor(in Input) Output {
	out := base(in)
	out.Value = asDate(in.Value)
	out.OnChange = func(value any) {
		emit(in, asDate(value))
	}
	return out
}

func phoneEditor(in Input) Output {
	out := base(in)
	out.Value = asPhone(in.Value)
	out.OnChange = func(value any) {
		emit(in, asPhone(value))
	}
	return out
}

func listEditor(in Input) Output {
	out := base(in)
	out.Value = asStringList(in.Value)
	out.OnChange = func(value any) {
		emit(in, asStringList(value))
	}
	return out
}

func currencyEditor(in Input) Output {
	out := base(in)
	fallback := ""
	if len(in.Options) > 0 {
		fallback = asString(in.Options[0].Value)
	}
	current := asCurrency(in.Value, fallback)
	out.Value = current
	out.OnChange = func(value any) {
		next := asCurrency(value, asString(current["currency"]))
		emit(in, next)
	}
	return out
}

func richTextEditor(in Input) Output {
	out := base(in)
	out.Value = richTextPolicy.Sanitize(asString(in.Value))
	out.OnChange = func(value any) {
		emit(in, richTextPolicy.Sanitize(asString(value)))
	}
	return out
}

func locationEditor(in Input) Output {
	out := base(in)
	if loc := asLocation(in.Value); loc != nil {
		out.Value = loc
	} else {
		out.Value = nil
	}
	out.OnChange = func(value any) {
		emit(in, asLocation(value))
	}
	out.Pick = func(ctx context.Context) error {
		picked, err := pick(ctx, in)
		if err != nil {
			return err
		}
		loc := asLocation(picked)
		if loc == nil {
			return fmt.Errorf("controller: picker returned no location")
		}
		emit(in, loc)
		return nil
	}
	return out
}

func multiLocationEditor(in Input) Output {
	out := base(in)
	current := asLocations(in.Value)
	out.Value = current
	out.OnChange = func(value any) {
		emit(in, asLocations(value))
	}
	out.Pick = func(ctx context.Context) error {
		picked, err := pick(ctx, in)
		if err != nil {
			return err
		}
		added := asLocations(picked)
		if loc := asLocation(picked); loc != nil {
			added = []any{loc}
		}
		if len(added) == 0 {
			return fmt.Errorf("controller: picker returned no location")
		}
		emit(in, append(append([]any{}, current...), added...))
		return nil
	}
	return out
}

// fileEditor covers file-upload, image-gallery and featured-image. Gallery
// and multiple uploads accumulate picked files; the others hold one file.
func fileEditor(in Input) Output {
	out := base(in)
	d := in.Descriptor
	multiple := d.Kind == model.KindImageGallery || (d.Kind == model.KindFileUpload && d.Multiple)

	var current []any
	if multiple {
		for _, item := range asList(in.Value) {
			if f, ok := asFile(item); ok {
				current = append(current, f.toMap())
			}
		}
		if current == nil {
			current = []any{}
		}
		out.Value = current
	} else if f, ok := asFile(in.Value); ok {
		out.Value = f.toMap()
	} else {
		out.Value = nil
	}

	out.Pick = func(ctx context.Context) error {
		picked, err := pick(ctx, in)
		if err != nil {
			return err
		}
		files := pickedFiles(picked)
		if len(files) == 0 {
			return fmt.Errorf("controller: picker returned no file")
		}
		for _, f := range files {
			if err := checkFile(d, f); err != nil {
				return err
			}
		}
		if !multiple {
			emit(in, files[len(files)-1].toMap())
			return nil
		}
		next := append([]any{}, current...)
		for _, f := range files {
			next = append(next, f.toMap())
		}
		emit(in, next)
		return nil
	}
	return out
}

func pick(ctx context.Context, in Input) (any, error) {
	if in.Pick == nil {
		return nil, ErrNoPicker
	}
	d := in.Descriptor
	return in.Pick(ctx, PickRequest{
		Kind:              d.Kind,
		Name:              d.Name,
		Multiple:          d.Multiple || d.Kind == model.KindImageGallery || d.Kind == model.KindMultiLocation,
		AcceptedFileTypes: d.AcceptedFileTypes,
	})
}

func pickedFiles(value any) []File {
	switch v := value.(type) {
	case File:
		return []File{v}
	case []File:
		return v
	}
	var out []File
	for _, item := range asList(value) {
		if f, ok := asFile(item); ok {
			out = append(out, f)
		}
	}
	return out
}

func asFile(value any) (File, bool) {
	switch v := value.(type) {
	case File:
		return v, v.URI != ""
	case map[string]any:
		f := File{
			Name:     asString(v["name"]),
			MimeType: asString(v["mimeType"]),
			URI:      asString(v["uri"]),
		}
		if size, ok := asNumber(v["size"]); ok {
			f.Size = int64(size)
		}
		return f, f.URI != ""
	case string:
		trimmed := strings.TrimSpace(v)
		return File{Name: path.Base(trimmed), URI: trimmed}, trimmed != ""
	default:
		return File{}, false
	}
}

func checkFile(d model.Descriptor, f File) error {
	if d.MaxFileSizeBytes > 0 && f.Size > d.MaxFileSizeBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, f.Name, f.Size, d.MaxFileSizeBytes)
	}
	if len(d.AcceptedFileTypes) == 0 {
		return nil
	}
	for _, accepted := range d.AcceptedFileTypes {
		if fileAccepted(accepted, f) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFileType, f.Name)
}

func fileAccepted(accepted string, f File) bool {
	accepted = strings.ToLower(strings.TrimSpace(accepted))
	mime := strings.ToLower(f.MimeType)
	switch {
	case accepted == "" || accepted == "*/*":
		return true
	case strings.HasPrefix(accepted, "."):
		return strings.HasSuffix(strings.ToLower(f.Name), accepted) || strings.HasSuffix(strings.ToLower(f.URI), accepted)
	case strings.HasSuffix(accepted, "/*"):
		return strings.HasPrefix(mime, strings.TrimSuffix(accepted, "*"))
	default:
		return mime == accepted
	}
}
