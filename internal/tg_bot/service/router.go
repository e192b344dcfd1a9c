package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
)

// Section groups the actions of one menu domain.
type Section string

const (
	SectionMenu        Section = "menu"
	SectionWallets     Section = "wallets"
	SectionCredentials Section = "credentials"
	SectionDefiWallets Section = "defiWallets"
	SectionAutoFill    Section = "autoFill"
	SectionHealth      Section = "health"
	SectionMisc        Section = "misc"
)

// HandlerFunc renders a screen or performs an operation for a decoded button.
type HandlerFunc func(ctx context.Context, ev *Event, params string, nav callback.Nav) error

// Router dispatches decoded callbacks. Handlers are registered once at
// start; a key belongs to exactly one section.
type Router struct {
	sections map[Section]map[callback.ActionKey]HandlerFunc
	index    map[callback.ActionKey]Section
}

func NewRouter() *Router {
	return &Router{
		sections: make(map[Section]map[callback.ActionKey]HandlerFunc),
		index:    make(map[callback.ActionKey]Section),
	}
}

// Handle registers fn for key in section. A key can be registered only once.
func (r *Router) Handle(section Section, key callback.ActionKey, fn HandlerFunc) error {
	if !key.Valid() {
		return fmt.Errorf("register %q: unknown action key", key)
	}
	if s, ok := r.index[key]; ok {
		return fmt.Errorf("register %q in %s: already registered in %s", key, section, s)
	}
	if r.sections[section] == nil {
		r.sections[section] = make(map[callback.ActionKey]HandlerFunc)
	}
	r.sections[section][key] = fn
	r.index[key] = section
	return nil
}

// Missing lists the action keys that have no handler.
func (r *Router) Missing() []callback.ActionKey {
	var out []callback.ActionKey
	for _, k := range callback.Keys() {
		if _, ok := r.index[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Route runs the handler of key. Button presses edit the message that
// carried the button; anything else sends a new message.
func (r *Router) Route(ctx context.Context, ev *Event, key callback.ActionKey, params string) error {
	var nav callback.Nav
	if ev.IsCallback() {
		nav.BackFrom = key
	}
	return r.route(ctx, ev, key, params, nav)
}

func (r *Router) route(ctx context.Context, ev *Event, key callback.ActionKey, params string, nav callback.Nav) error {
	section, ok := r.index[key]
	if !ok {
		return fmt.Errorf("no handler for action %q", key)
	}
	return r.sections[section][key](ctx, ev, params, nav)
}

// back re-opens the screen whose token is carried in params. The target
// screen builds its own Back button, so only one hop is remembered.
func (r *Router) back(ctx context.Context, ev *Event, params string, _ callback.Nav) error {
	to := callback.Parse(params)
	if to.Key == callback.ActionBack {
		return fmt.Errorf("nested back token %q", params)
	}
	return r.route(ctx, ev, to.Key, to.Params, callback.Nav{BackFrom: callback.ActionBack})
}
