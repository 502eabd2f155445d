/*
Package resolve turns a classified cursor position into ranked annotation candidates.

Three providers implement the same Provider interface, one per annotation slot.
Each checks its own trigger character, asks the trigger package whether the
site matches, extracts the identifier, and looks the prediction up in the
typestore:

	resolver := resolve.NewResolver(store, trigger.NewClassifier(4), resolve.DefaultFormat())
	candidates := resolver.Resolve(ctx, resolve.Request{
		Path:    "/work/app.py",
		Doc:     trigger.NewWindow(0, source),
		Pos:     trigger.Position{Line: 9, Character: 10},
		Trigger: trigger.ParamTrigger,
	})

"No data" is not an error: a file that was never inferred, or a position no
record covers, simply yields no candidates.
*/
package resolve

import (
	"context"

	"github.com/bastiangx/hintserve/pkg/trigger"
	"github.com/bastiangx/hintserve/pkg/typestore"
	"github.com/charmbracelet/log"
)

// Request is one completion request from the editor.
type Request struct {
	Path    string
	Doc     trigger.Document
	Pos     trigger.Position
	Trigger string
}

// slotLine converts the 0-indexed editor line into the 1-indexed line ranges use.
func (r Request) slotLine() int {
	return r.Pos.Line + 1
}

// Provider produces candidates for one slot kind.
// Cancellation of ctx is checked between steps; a cancelled request yields nothing.
type Provider interface {
	Provide(ctx context.Context, req Request) []Candidate
}

// ParamProvider offers parameter annotations.
type ParamProvider struct {
	store      *typestore.Store
	classifier *trigger.Classifier
	format     Format
}

// NewParamProvider returns a parameter provider.
func NewParamProvider(store *typestore.Store, classifier *trigger.Classifier, format Format) *ParamProvider {
	return &ParamProvider{store: store, classifier: classifier, format: format}
}

// Provide implements Provider.
func (p *ParamProvider) Provide(ctx context.Context, req Request) []Candidate {
	if req.Trigger != trigger.ParamTrigger {
		return nil
	}
	if !p.classifier.IsParameterSite(req.Doc, req.Pos) || ctx.Err() != nil {
		return nil
	}

	preceding := trigger.PrecedingText(req.Doc.LineAt(req.Pos.Line), req.Pos.Character)
	param, ok := trigger.ParamName(preceding)
	if !ok || ctx.Err() != nil {
		return nil
	}

	fn, ok := p.store.FindFunction(req.Path, req.slotLine())
	if !ok {
		log.Debugf("No function data at %s:%d", req.Path, req.slotLine())
		return nil
	}
	annotations, ok := fn.Params[param]
	if !ok {
		return nil
	}
	return p.format.Candidates(annotations, trigger.Parameter, param, req.slotLine())
}

// ReturnProvider offers return type annotations.
type ReturnProvider struct {
	store      *typestore.Store
	classifier *trigger.Classifier
	format     Format
}

// NewReturnProvider returns a return type provider.
func NewReturnProvider(store *typestore.Store, classifier *trigger.Classifier, format Format) *ReturnProvider {
	return &ReturnProvider{store: store, classifier: classifier, format: format}
}

// Provide implements Provider.
func (p *ReturnProvider) Provide(ctx context.Context, req Request) []Candidate {
	if req.Trigger != trigger.ReturnTrigger {
		return nil
	}
	if !p.classifier.IsReturnSite(req.Doc.LineAt(req.Pos.Line), req.Pos) || ctx.Err() != nil {
		return nil
	}

	fn, ok := p.store.FindFunction(req.Path, req.slotLine())
	if !ok {
		log.Debugf("No function data at %s:%d", req.Path, req.slotLine())
		return nil
	}
	return p.format.Candidates(fn.ReturnTypes, trigger.ReturnType, fn.Name, req.slotLine())
}

// VariableProvider offers variable annotations.
type VariableProvider struct {
	store      *typestore.Store
	classifier *trigger.Classifier
	format     Format
}

// NewVariableProvider returns a variable provider.
func NewVariableProvider(store *typestore.Store, classifier *trigger.Classifier, format Format) *VariableProvider {
	return &VariableProvider{store: store, classifier: classifier, format: format}
}

// Provide implements Provider.
func (p *VariableProvider) Provide(ctx context.Context, req Request) []Candidate {
	if req.Trigger != trigger.ParamTrigger {
		return nil
	}
	line := req.Doc.LineAt(req.Pos.Line)
	if !p.classifier.IsVariableSite(line, req.Pos) || ctx.Err() != nil {
		return nil
	}

	name, ok := trigger.VariableName(line)
	if !ok || ctx.Err() != nil {
		return nil
	}

	v, ok := p.store.FindVariable(req.Path, req.slotLine(), name)
	if !ok {
		log.Debugf("No variable data for %q at %s:%d", name, req.Path, req.slotLine())
		return nil
	}
	return p.format.Candidates(v.Annotations, trigger.Variable, v.Name, req.slotLine())
}

// Resolver runs every provider registered for the language, in order.
type Resolver struct {
	providers []Provider
}

// NewResolver wires the three slot providers over one store.
func NewResolver(store *typestore.Store, classifier *trigger.Classifier, format Format) *Resolver {
	return &Resolver{
		providers: []Provider{
			NewParamProvider(store, classifier, format),
			NewReturnProvider(store, classifier, format),
			NewVariableProvider(store, classifier, format),
		},
	}
}

// NewResolverWith builds a resolver from arbitrary providers.
func NewResolverWith(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve collects candidates from all providers.
func (r *Resolver) Resolve(ctx context.Context, req Request) []Candidate {
	var candidates []Candidate
	for _, p := range r.providers {
		if ctx.Err() != nil {
			return nil
		}
		candidates = append(candidates, p.Provide(ctx, req)...)
	}
	return candidates
}
