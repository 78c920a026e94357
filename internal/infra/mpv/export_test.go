package mpv

import "context"

// attach connects to an mpv already listening on socketPath.
func (p *Player) attach(ctx context.Context, socketPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attachLocked(ctx, socketPath)
}
