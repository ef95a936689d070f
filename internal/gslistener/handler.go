package gslistener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/gslistener/clientpackets"
	"github.com/udisondev/la2login/internal/gslistener/serverpackets"
	"github.com/udisondev/la2login/internal/login"
)

// Handler обрабатывает входящие пакеты от GameServer
type Handler struct {
	ctrl     *login.Controller
	servers  *gameserver.GameServerTable
	notifier Notifier
	mailer   Mailer
}

// NewHandler создаёт handler для GS↔LS пакетов.
// mailer == nil отключает RequestSendMail.
func NewHandler(ctrl *login.Controller, notifier Notifier, mailer Mailer) *Handler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Handler{
		ctrl:     ctrl,
		servers:  ctrl.Servers(),
		notifier: notifier,
		mailer:   mailer,
	}
}

// HandlePacket диспетчеризирует пакет по (state, opcode) → handler function.
// Writes response into buf. Returns: n — bytes written to buf (0 = nothing to send),
// ok — true if connection stays open (false = close after sending).
// Opcode, недопустимый в текущем состоянии, закрывает соединение с NOT_AUTHED.
func (h *Handler) HandlePacket(
	ctx context.Context,
	conn *GSConnection,
	data, buf []byte,
) (int, bool, error) {
	if len(data) == 0 {
		return 0, false, fmt.Errorf("empty packet")
	}

	opcode := data[0]
	body := data[1:]
	state := conn.State()

	switch state {
	case gameserver.GSStateConnected:
		if opcode == OpcodeBlowFishKey {
			return h.handleBlowFishKey(conn, body)
		}

	case gameserver.GSStateBFConnected:
		if opcode == OpcodeGameServerAuth {
			return h.handleGameServerAuth(ctx, conn, body, buf)
		}

	case gameserver.GSStateAuthed:
		switch opcode {
		case OpcodePlayerInGame:
			return h.handlePlayerInGame(conn, body)
		case OpcodePlayerLogout:
			return h.handlePlayerLogout(conn, body)
		case OpcodeChangeAccessLevel:
			return h.handleChangeAccessLevel(ctx, body)
		case OpcodePlayerAuthRequest:
			return h.handlePlayerAuthRequest(body, buf)
		case OpcodeServerStatus:
			return h.handleServerStatus(conn, body)
		case OpcodePlayerTracert:
			return h.handlePlayerTracert(ctx, body)
		case OpcodeReplyCharacters:
			return h.handleReplyCharacters(conn, body)
		case OpcodeRequestSendMail:
			return h.handleRequestSendMail(body)
		case OpcodeRequestTempBan:
			return h.handleRequestTempBan(ctx, body)
		case OpcodeChangePassword:
			return h.handleChangePassword(ctx, body)
		}
	}

	slog.Warn("unknown opcode from game server, closing connection",
		"opcode", fmt.Sprintf("0x%02X", opcode),
		"state", state,
		"ip", conn.IP())
	return serverpackets.LoginServerFail(buf, gameserver.ReasonNotAuthed), false, nil
}

func (h *Handler) handleBlowFishKey(conn *GSConnection, body []byte) (int, bool, error) {
	var pkt clientpackets.BlowFishKey
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing BlowFishKey packet: %w", err)
	}

	block, err := crypto.RSADecryptNoPadding(conn.RSAKeyPair().PrivateKey, pkt.EncryptedKey)
	if err != nil {
		return 0, false, fmt.Errorf("decrypting blowfish key: %w", err)
	}
	if err := conn.SetKey(block); err != nil {
		return 0, false, fmt.Errorf("installing blowfish key: %w", err)
	}

	conn.SetState(gameserver.GSStateBFConnected)
	slog.Debug("game server blowfish key installed", "ip", conn.IP())
	return 0, true, nil
}

func (h *Handler) handleGameServerAuth(ctx context.Context, conn *GSConnection, body, buf []byte) (int, bool, error) {
	var pkt clientpackets.GameServerAuth
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing GameServerAuth packet: %w", err)
	}

	addresses := make([]gameserver.Address, 0, len(pkt.Hosts))
	for _, hp := range pkt.Hosts {
		addr, err := gameserver.ParseAddress(hp.Subnet, hp.Host)
		if err != nil {
			slog.Warn("skipping game server address", "ip", conn.IP(), "subnet", hp.Subnet, "host", hp.Host, "err", err)
			continue
		}
		addresses = append(addresses, addr)
	}

	reg := gameserver.Registration{
		DesiredID:           int(pkt.ID),
		AcceptAlternativeID: pkt.AcceptAlternate,
		HexID:               pkt.HexID,
		Port:                int(pkt.Port),
		MaxPlayers:          int(pkt.MaxPlayers),
		Addresses:           addresses,
	}
	info, reason := h.servers.Authorize(ctx, reg, conn)
	if reason != gameserver.ReasonNone {
		slog.Warn("game server registration refused", "requested_id", pkt.ID, "reason", reason, "ip", conn.IP())
		return serverpackets.LoginServerFail(buf, reason), false, nil
	}

	conn.AttachGameServerInfo(info)
	conn.SetState(gameserver.GSStateAuthed)

	id := info.ID()
	name := h.servers.Name(id)
	slog.Info("game server authenticated",
		"server_id", id,
		"requested_id", pkt.ID,
		"port", pkt.Port,
		"max_players", pkt.MaxPlayers,
		"addresses", len(addresses),
		"ip", conn.IP())
	h.notifier.Notify(fmt.Sprintf("GameServer [%d] %s is connected", id, name))

	n, err := serverpackets.AuthResponse(buf, byte(id), name)
	if err != nil {
		return 0, false, fmt.Errorf("writing AuthResponse: %w", err)
	}
	return n, true, nil
}

func (h *Handler) handlePlayerInGame(conn *GSConnection, body []byte) (int, bool, error) {
	var pkt clientpackets.PlayerInGame
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing PlayerInGame packet: %w", err)
	}

	for _, account := range pkt.Accounts {
		conn.AddAccount(account)
	}
	slog.Debug("players entered game", "count", len(pkt.Accounts), "server_id", conn.ServerID())
	return 0, true, nil
}

func (h *Handler) handlePlayerLogout(conn *GSConnection, body []byte) (int, bool, error) {
	var pkt clientpackets.PlayerLogout
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing PlayerLogout packet: %w", err)
	}

	conn.RemoveAccount(pkt.Account)
	h.notifier.Notify(fmt.Sprintf("Player %s disconnected from GameServer %d", pkt.Account, conn.ServerID()))
	return 0, true, nil
}

func (h *Handler) handleChangeAccessLevel(ctx context.Context, body []byte) (int, bool, error) {
	var pkt clientpackets.ChangeAccessLevel
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing ChangeAccessLevel packet: %w", err)
	}

	h.ctrl.SetAccountAccessLevel(ctx, pkt.Account, int(pkt.Level))
	slog.Info("access level changed", "account", pkt.Account, "level", pkt.Level)
	return 0, true, nil
}

func (h *Handler) handlePlayerAuthRequest(body, buf []byte) (int, bool, error) {
	var pkt clientpackets.PlayerAuthRequest
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing PlayerAuthRequest packet: %w", err)
	}

	valid := h.ctrl.ValidateSessionKey(pkt.Account, pkt.SessionKey)
	if valid {
		slog.Debug("player session redeemed", "account", pkt.Account)
	} else {
		slog.Warn("player session validation failed", "account", pkt.Account)
	}
	n, err := serverpackets.PlayerAuthResponse(buf, pkt.Account, valid)
	if err != nil {
		return 0, false, fmt.Errorf("writing PlayerAuthResponse: %w", err)
	}
	return n, true, nil
}

func (h *Handler) handleServerStatus(conn *GSConnection, body []byte) (int, bool, error) {
	var pkt clientpackets.ServerStatus
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing ServerStatus packet: %w", err)
	}

	info := conn.GameServerInfo()
	for _, attr := range pkt.Attributes {
		switch attr.ID {
		case gameserver.AttrServerListStatus:
			info.SetStatus(int(attr.Value))
		case gameserver.AttrServerType:
			info.SetServerType(int(attr.Value))
		case gameserver.AttrServerListSquareBracket:
			info.SetShowingBrackets(attr.Value == gameserver.AttrOn)
		case gameserver.AttrMaxPlayers:
			info.SetMaxPlayers(int(attr.Value))
		case gameserver.AttrServerAge:
			info.SetAgeLimit(int(attr.Value))
		default:
			slog.Debug("ignoring ServerStatus attribute", "id", attr.ID, "value", attr.Value)
		}
	}

	slog.Debug("server status updated",
		"server_id", info.ID(),
		"status", gameserver.StatusName(info.Status()),
		"max_players", info.MaxPlayers())
	return 0, true, nil
}

func (h *Handler) handlePlayerTracert(ctx context.Context, body []byte) (int, bool, error) {
	var pkt clientpackets.PlayerTracert
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing PlayerTracert packet: %w", err)
	}

	h.ctrl.SetAccountLastTracert(ctx, pkt.Account, pkt.Tracert)
	return 0, true, nil
}

func (h *Handler) handleReplyCharacters(conn *GSConnection, body []byte) (int, bool, error) {
	var pkt clientpackets.ReplyCharacters
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing ReplyCharacters packet: %w", err)
	}

	h.ctrl.SetCharactersOnServer(pkt.Account, pkt.Chars, pkt.Deletions, conn.ServerID())
	return 0, true, nil
}

func (h *Handler) handleRequestSendMail(body []byte) (int, bool, error) {
	if h.mailer == nil {
		return 0, true, nil
	}

	var pkt clientpackets.RequestSendMail
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing RequestSendMail packet: %w", err)
	}

	h.mailer.SendMail(pkt.Account, pkt.MailID, pkt.Args)
	return 0, true, nil
}

func (h *Handler) handleRequestTempBan(ctx context.Context, body []byte) (int, bool, error) {
	var pkt clientpackets.RequestTempBan
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing RequestTempBan packet: %w", err)
	}

	h.ctrl.TempBan(ctx, pkt.Account, pkt.IP, pkt.Expires)
	slog.Info("temporary ban requested",
		"account", pkt.Account,
		"ip", pkt.IP,
		"until", pkt.Expires,
		"reason", pkt.Reason)
	return 0, true, nil
}

// handleChangePassword отвечает тому гейм-серверу, на котором сейчас аккаунт.
func (h *Handler) handleChangePassword(ctx context.Context, body []byte) (int, bool, error) {
	var pkt clientpackets.ChangePassword
	if err := pkt.Parse(body); err != nil {
		return 0, false, fmt.Errorf("parsing ChangePassword packet: %w", err)
	}

	host, ok := h.servers.FindAccount(pkt.Account)
	if !ok {
		slog.Warn("change password for account not online", "account", pkt.Account)
		return 0, true, nil
	}
	link := host.Link()
	if link == nil {
		return 0, true, nil
	}

	changed, msg := h.ctrl.ChangePassword(ctx, pkt.Account, pkt.Current, pkt.New)
	link.ChangePasswordResponse(changed, pkt.Character, msg)
	return 0, true, nil
}
