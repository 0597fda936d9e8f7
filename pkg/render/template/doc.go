// Package template renders wizard step views with pongo2. Engine satisfies
// wizard.Renderer and exposes the translation and sanitising helpers step
// templates use.
package template
