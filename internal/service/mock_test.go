package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freeeve/second-dawn/internal/model"
)

type mockGameRepo struct {
	games   map[string]*model.Game
	players map[string][]model.Player
	invites map[string]*model.GameInvite
	vp      map[string]int
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.Player),
		invites: make(map[string]*model.GameInvite),
		vp:      make(map[string]int),
	}
}

func (m *mockGameRepo) Create(_ context.Context, name, hostUserID string, maxPlayers int) (*model.Game, error) {
	g := &model.Game{
		ID:         fmt.Sprintf("game-%d", len(m.games)+1),
		Name:       name,
		Status:     model.StatusLobby,
		MaxPlayers: maxPlayers,
		HostUserID: hostUserID,
		CreatedAt:  time.Now(),
	}
	m.games[g.ID] = g
	m.players[g.ID] = append(m.players[g.ID], model.Player{
		ID:       g.ID + "-p-" + hostUserID,
		GameID:   g.ID,
		UserID:   hostUserID,
		JoinedAt: time.Now(),
	})
	return g, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	players := make([]model.Player, len(m.players[id]))
	copy(players, m.players[id])
	for i := range players {
		players[i].VP = m.vp[players[i].ID]
	}
	cp.Players = players
	return &cp, nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == model.StatusLobby {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID {
				result = append(result, *m.games[gameID])
				break
			}
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == model.StatusActive {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID, species string) error {
	m.players[gameID] = append(m.players[gameID], model.Player{
		ID:       gameID + "-p-" + userID,
		GameID:   gameID,
		UserID:   userID,
		Species:  species,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) PlayerCount(_ context.Context, gameID string) (int, error) {
	return len(m.players[gameID]), nil
}

func (m *mockGameRepo) SetStarted(_ context.Context, gameID string, turnOrder map[string]int, deadline time.Time) error {
	players := m.players[gameID]
	first := ""
	lowest := -1
	for i := range players {
		order := turnOrder[players[i].ID]
		players[i].TurnOrder = order
		if lowest == -1 || order < lowest {
			lowest = order
			first = players[i].ID
		}
	}
	for i := range players {
		players[i].IsActiveTurn = players[i].ID == first
	}
	g := m.games[gameID]
	g.Status = model.StatusActive
	g.Phase = model.PhaseActivation
	g.Round = 1
	g.PhaseDeadline = &deadline
	now := time.Now()
	g.StartedAt = &now
	return nil
}

func (m *mockGameRepo) SetPhase(_ context.Context, gameID, phase string, round int, deadline *time.Time) error {
	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("game not found")
	}
	g.Phase = phase
	g.Round = round
	g.PhaseDeadline = deadline
	return nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = model.StatusFinished
		g.Phase = ""
		g.Winner = winner
	}
	return nil
}

func (m *mockGameRepo) ListPhaseExpired(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == model.StatusActive && g.PhaseDeadline != nil && g.PhaseDeadline.Before(time.Now()) {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) AddVictoryPoints(_ context.Context, playerID string, points int) error {
	m.vp[playerID] += points
	return nil
}

func (m *mockGameRepo) CreateInvite(_ context.Context, gameID, createdBy string) (*model.GameInvite, error) {
	inv := &model.GameInvite{
		Token:     fmt.Sprintf("invite-%d", len(m.invites)+1),
		GameID:    gameID,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	m.invites[inv.Token] = inv
	return inv, nil
}

func (m *mockGameRepo) FindInvite(_ context.Context, token string) (*model.GameInvite, error) {
	return m.invites[token], nil
}

// setPassed flips a player's pass flag directly for test setup.
func (m *mockGameRepo) setPassed(gameID, playerID string, passed bool) {
	players := m.players[gameID]
	for i := range players {
		if players[i].ID == playerID {
			players[i].HasPassed = passed
		}
	}
}

type mockTurnRepo struct {
	gameRepo *mockGameRepo
	board    *mockBoardRepo // set when a test submits move actions
	actions  []model.GameAction
}

func newMockTurnRepo(gameRepo *mockGameRepo) *mockTurnRepo {
	return &mockTurnRepo{gameRepo: gameRepo}
}

func (m *mockTurnRepo) SubmitTurn(_ context.Context, action *model.GameAction, passed bool, nextActiveID, phase string, deadline *time.Time, moves []model.ShipMove) error {
	action.ID = fmt.Sprintf("action-%d", len(m.actions)+1)
	action.CreatedAt = time.Now()
	m.actions = append(m.actions, *action)

	for _, mv := range moves {
		if m.board == nil {
			return fmt.Errorf("no board to apply move to")
		}
		if s, ok := m.board.ships[mv.ShipID]; ok {
			s.HexID = mv.ToHexID
		}
	}

	players := m.gameRepo.players[action.GameID]
	for i := range players {
		if passed && players[i].ID == action.PlayerID {
			players[i].HasPassed = true
		}
		players[i].IsActiveTurn = players[i].ID == nextActiveID && nextActiveID != ""
	}
	if phase != "" {
		g := m.gameRepo.games[action.GameID]
		g.Phase = phase
		g.PhaseDeadline = deadline
	}
	return nil
}

func (m *mockTurnRepo) ListActions(_ context.Context, gameID string) ([]model.GameAction, error) {
	var result []model.GameAction
	for _, a := range m.actions {
		if a.GameID == gameID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockTurnRepo) ListActionsByRound(_ context.Context, gameID string, round int) ([]model.GameAction, error) {
	var result []model.GameAction
	for _, a := range m.actions {
		if a.GameID == gameID && a.Round == round {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockTurnRepo) ResetPasses(_ context.Context, gameID, firstActiveID string) error {
	players := m.gameRepo.players[gameID]
	for i := range players {
		players[i].HasPassed = false
		players[i].IsActiveTurn = players[i].ID == firstActiveID
	}
	return nil
}

func (m *mockTurnRepo) ClearActiveTurn(_ context.Context, gameID string) error {
	players := m.gameRepo.players[gameID]
	for i := range players {
		players[i].IsActiveTurn = false
	}
	return nil
}

type mockBoardRepo struct {
	tiles      map[string]*model.HexTile
	ships      map[string]*model.Ship
	blueprints map[string]*model.ShipBlueprint // key: playerID:shipType
	seeded     bool
}

func newMockBoardRepo() *mockBoardRepo {
	return &mockBoardRepo{
		tiles:      make(map[string]*model.HexTile),
		ships:      make(map[string]*model.Ship),
		blueprints: make(map[string]*model.ShipBlueprint),
	}
}

func (m *mockBoardRepo) SeedBoard(_ context.Context, gameID string, tiles []model.HexTile, ships []model.Ship, blueprints []model.ShipBlueprint) error {
	m.seeded = true
	for i := range tiles {
		t := tiles[i]
		m.tiles[t.ID] = &t
	}
	for i := range ships {
		s := ships[i]
		m.ships[s.ID] = &s
	}
	for i := range blueprints {
		b := blueprints[i]
		m.blueprints[b.PlayerID+":"+b.ShipType] = &b
	}
	return nil
}

func (m *mockBoardRepo) addTile(t model.HexTile) *model.HexTile {
	m.tiles[t.ID] = &t
	return m.tiles[t.ID]
}

func (m *mockBoardRepo) addShip(s model.Ship) *model.Ship {
	m.ships[s.ID] = &s
	return m.ships[s.ID]
}

func (m *mockBoardRepo) ListTiles(_ context.Context, gameID string) ([]model.HexTile, error) {
	var result []model.HexTile
	for _, t := range m.tiles {
		if t.GameID == gameID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockBoardRepo) FindTile(_ context.Context, tileID string) (*model.HexTile, error) {
	t, ok := m.tiles[tileID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockBoardRepo) TileAt(_ context.Context, gameID string, q, r int) (*model.HexTile, error) {
	for _, t := range m.tiles {
		if t.GameID == gameID && t.Q == q && t.R == r {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockBoardRepo) ListShips(_ context.Context, gameID string) ([]model.Ship, error) {
	var result []model.Ship
	for _, s := range m.ships {
		if s.GameID == gameID && s.HexID != "" {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockBoardRepo) FindShip(_ context.Context, shipID string) (*model.Ship, error) {
	s, ok := m.ships[shipID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockBoardRepo) MoveShip(_ context.Context, shipID, hexID string) error {
	s, ok := m.ships[shipID]
	if !ok {
		return fmt.Errorf("ship not found")
	}
	s.HexID = hexID
	return nil
}

func (m *mockBoardRepo) BlueprintFor(_ context.Context, playerID, shipType string) (*model.ShipBlueprint, error) {
	return m.blueprints[playerID+":"+shipType], nil
}

func (m *mockBoardRepo) ApplyCombatOutcome(_ context.Context, destroyedIDs []string, survivorHP map[string]int) error {
	for _, id := range destroyedIDs {
		if s, ok := m.ships[id]; ok {
			s.HexID = ""
			s.HP = 0
		}
	}
	for id, hp := range survivorHP {
		if s, ok := m.ships[id]; ok {
			s.HP = hp
		}
	}
	return nil
}

type mockReportRepo struct {
	reports []model.CombatReport
}

func (m *mockReportRepo) Save(_ context.Context, report *model.CombatReport) error {
	report.ID = fmt.Sprintf("report-%d", len(m.reports)+1)
	report.CreatedAt = time.Now()
	m.reports = append(m.reports, *report)
	return nil
}

func (m *mockReportRepo) ListByGame(_ context.Context, gameID string) ([]model.CombatReport, error) {
	var result []model.CombatReport
	for _, r := range m.reports {
		if r.GameID == gameID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReportRepo) ListByRound(_ context.Context, gameID string, round int) ([]model.CombatReport, error) {
	var result []model.CombatReport
	for _, r := range m.reports {
		if r.GameID == gameID && r.Round == round {
			result = append(result, r)
		}
	}
	return result, nil
}

type mockResourceRepo struct {
	resources map[string]*model.PlayerResources
	accruals  map[string]int // gameID -> times AccrueIncome ran
}

func newMockResourceRepo() *mockResourceRepo {
	return &mockResourceRepo{
		resources: make(map[string]*model.PlayerResources),
		accruals:  make(map[string]int),
	}
}

func (m *mockResourceRepo) InitPlayer(_ context.Context, playerID string) error {
	if _, ok := m.resources[playerID]; !ok {
		m.resources[playerID] = &model.PlayerResources{PlayerID: playerID}
	}
	return nil
}

func (m *mockResourceRepo) GetForPlayer(_ context.Context, playerID string) (*model.PlayerResources, error) {
	return m.resources[playerID], nil
}

func (m *mockResourceRepo) AccrueIncome(_ context.Context, gameID string) error {
	m.accruals[gameID]++
	return nil
}

type mockCache struct {
	states map[string]json.RawMessage
	timers map[string]time.Time
}

func newMockCache() *mockCache {
	return &mockCache{
		states: make(map[string]json.RawMessage),
		timers: make(map[string]time.Time),
	}
}

func (c *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.states[gameID] = state
	return nil
}

func (c *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	return c.states[gameID], nil
}

func (c *mockCache) SetPhaseTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.timers[gameID] = deadline
	return nil
}

func (c *mockCache) ClearPhaseTimer(_ context.Context, gameID string) error {
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string) error {
	delete(c.states, gameID)
	delete(c.timers, gameID)
	return nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	events []string
}

func (b *recordingBroadcaster) BroadcastGameEvent(_ string, eventType string, _ any) {
	b.events = append(b.events, eventType)
}

func (b *recordingBroadcaster) has(eventType string) bool {
	for _, e := range b.events {
		if e == eventType {
			return true
		}
	}
	return false
}
