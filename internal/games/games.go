// Package games pulls in every rule module so their registry init
// functions run. Hosts import it for side effects, the way database
// drivers are loaded.
package games

import (
	_ "github.com/moltblox/gamekit/internal/games/brawl"
	_ "github.com/moltblox/gamekit/internal/games/chess"
	_ "github.com/moltblox/gamekit/internal/games/euchre"
	_ "github.com/moltblox/gamekit/internal/games/forge"
	_ "github.com/moltblox/gamekit/internal/games/mill"
)
