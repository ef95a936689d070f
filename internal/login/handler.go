package login

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/login/serverpackets"
	"github.com/udisondev/la2login/internal/packet"
)

// Client packet opcodes
const (
	OpcodeRequestAuthLogin   = 0x00
	OpcodeRequestServerLogin = 0x02
	OpcodeRequestServerList  = 0x05
	OpcodeAuthGameGuard      = 0x07
)

// Handler processes login packets. Singleton — один на сервер.
type Handler struct {
	ctrl *Controller
	cfg  config.LoginServer
}

// NewHandler creates a packet handler.
func NewHandler(ctrl *Controller, cfg config.LoginServer) *Handler {
	return &Handler{
		ctrl: ctrl,
		cfg:  cfg,
	}
}

// HandlePacket dispatches a decrypted packet by (state, opcode).
// Writes response into buf. Returns: n — bytes written to buf (0 = nothing to send),
// ok — true if connection stays open (false = close after sending).
// Opcodes not valid in the current state are logged and ignored.
func (h *Handler) HandlePacket(
	ctx context.Context,
	client *Client,
	data, buf []byte,
) (int, bool, error) {
	if len(data) == 0 {
		return 0, false, fmt.Errorf("empty packet data")
	}

	opcode := data[0]
	body := data[1:]
	state := client.State()

	switch {
	case state == StateConnected && opcode == OpcodeAuthGameGuard:
		return handleAuthGameGuard(client, body, buf)
	case state == StateAuthedGG && opcode == OpcodeRequestAuthLogin:
		return h.handleRequestAuthLogin(ctx, client, body, buf)
	case state == StateAuthedLogin && opcode == OpcodeRequestServerList:
		return h.handleRequestServerList(client, body, buf)
	case state == StateAuthedLogin && opcode == OpcodeRequestServerLogin:
		return h.handleRequestServerLogin(ctx, client, body, buf)
	default:
		slog.Warn("unexpected login packet",
			"opcode", fmt.Sprintf("0x%02X", opcode),
			"state", state,
			"client", client.IP())
		return 0, true, nil
	}
}

func closeFail(buf []byte, reason byte) (int, bool) {
	return serverpackets.LoginFail(buf, reason), false
}

// handleAuthGameGuard processes opcode 0x07 in state CONNECTED.
func handleAuthGameGuard(client *Client, data, buf []byte) (int, bool, error) {
	if len(data) < 4 {
		return 0, false, fmt.Errorf("AuthGameGuard packet too short: %d", len(data))
	}

	sessionID := int32(binary.LittleEndian.Uint32(data[:4]))

	if sessionID != client.SessionID() {
		slog.Warn("session ID mismatch in AuthGameGuard",
			"expected", client.SessionID(),
			"got", sessionID,
			"client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonAccessFailed)
		return n, ok, nil
	}

	client.SetState(StateAuthedGG)
	slog.Debug("GameGuard auth OK", "client", client.IP())
	return serverpackets.GGAuth(buf, client.SessionID()), true, nil
}

// credentials — расшифрованное содержимое RequestAuthLogin.
type credentials struct {
	login    string
	password string
	otp      int32
}

// decodeCredentials decrypts one (legacy) or two (new layout) RSA blocks.
func decodeCredentials(kp *crypto.RSAKeyPair, data []byte) (credentials, error) {
	if len(data) < constants.AuthLoginBlockSize {
		return credentials{}, fmt.Errorf("RequestAuthLogin packet too short: %d", len(data))
	}
	newLayout := len(data) >= constants.AuthLoginNewLayoutMinSize

	decUser, err := crypto.RSADecryptNoPadding(kp.PrivateKey, data[:constants.AuthLoginBlockSize])
	if err != nil {
		return credentials{}, fmt.Errorf("decrypting user block: %w", err)
	}

	var cr credentials
	if newLayout {
		decPass, err := crypto.RSADecryptNoPadding(kp.PrivateKey, data[constants.AuthLoginBlockSize:2*constants.AuthLoginBlockSize])
		if err != nil {
			return credentials{}, fmt.Errorf("decrypting password block: %w", err)
		}
		cr.login = field(decUser, constants.AuthLoginUserOffsetNew, constants.AuthLoginUserMaxLength)
		cr.password = field(decPass, constants.AuthLoginPassOffsetNew, constants.AuthLoginPassMaxLength)
	} else {
		cr.login = field(decUser, constants.AuthLoginUserOffsetLegacy, constants.AuthLoginUserMaxLength)
		cr.password = field(decUser, constants.AuthLoginPassOffsetLegacy, constants.AuthLoginPassMaxLength)
	}
	cr.login = strings.ToLower(cr.login)
	cr.otp = int32(binary.LittleEndian.Uint32(decUser[constants.AuthLoginOTPOffset:]))
	return cr, nil
}

// field cuts a fixed-width ASCII field and trims NULs and whitespace around it.
func field(block []byte, offset, size int) string {
	return strings.TrimFunc(string(block[offset:offset+size]), func(r rune) bool {
		return r <= ' '
	})
}

// handleRequestAuthLogin processes opcode 0x00 in state AUTHED_GG.
func (h *Handler) handleRequestAuthLogin(
	ctx context.Context,
	client *Client,
	data, buf []byte,
) (int, bool, error) {
	cr, err := decodeCredentials(client.RSAKeyPair(), data)
	if err != nil {
		// пакет отбрасывается без ответа, соединение живёт дальше
		slog.Warn("dropping undecodable RequestAuthLogin", "err", err, "client", client.IP())
		return 0, true, nil
	}

	if cr.login == "" || cr.password == "" {
		slog.Warn("empty login or password", "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonUserOrPassWrong)
		return n, ok, nil
	}

	slog.Info("auth attempt", "login", cr.login, "client", client.IP())

	acc, res, err := h.ctrl.Authenticate(ctx, client.IP(), cr.login, cr.password)
	if err != nil {
		slog.Error("database error during auth", "err", err, "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonSystemError)
		return n, ok, nil
	}

	switch res {
	case AuthAddressBanned:
		slog.Warn("login from banned address", "login", cr.login, "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonRestrictedIP)
		return n, ok, nil
	case AuthInvalidCredentials:
		slog.Warn("wrong password", "login", cr.login, "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonUserOrPassWrong)
		return n, ok, nil
	}

	result := h.ctrl.Checkin(ctx, client, acc)
	switch result {
	case CheckinSuccess:
		client.SetAccount(acc.Login)
		client.SetState(StateAuthedLogin)
		sk := h.ctrl.AssignSessionKey(client)
		h.ctrl.RequestCharacters(acc.Login)

		slog.Info("auth success", "login", acc.Login, "client", client.IP())
		if h.cfg.ShowLicence {
			return serverpackets.LoginOk(buf, sk.LoginOkID1, sk.LoginOkID2), true, nil
		}
		return h.buildServerList(client, buf)

	case CheckinInvalidPassword:
		n, ok := closeFail(buf, serverpackets.ReasonUserOrPassWrong)
		return n, ok, nil

	case CheckinAccountBanned:
		slog.Warn("account banned", "login", acc.Login, "client", client.IP())
		return serverpackets.AccountKicked(buf, serverpackets.ReasonPermanentlyBanned), false, nil

	case CheckinAlreadyOnLS:
		if old, ok := h.ctrl.AuthedClient(acc.Login); ok {
			old.Close(serverpackets.ReasonAccountInUse)
			h.ctrl.Sessions().RemoveIf(acc.Login, old)
		}
		slog.Warn("account already on login server", "login", acc.Login, "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonAccountInUse)
		return n, ok, nil

	case CheckinAlreadyOnGS:
		if info, ok := h.ctrl.Servers().FindAccount(acc.Login); ok {
			if link := info.Link(); link != nil {
				link.KickPlayer(acc.Login)
			}
		}
		slog.Warn("account already on game server", "login", acc.Login, "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonAccountInUse)
		return n, ok, nil

	default:
		return 0, false, fmt.Errorf("unhandled checkin result %v", result)
	}
}

// checkLoginPair validates the LoginOk pair echoed by the client. Without the
// licence screen the client never received it.
func (h *Handler) checkLoginPair(client *Client, r *packet.Reader) (bool, error) {
	k1, err := r.ReadInt()
	if err != nil {
		return false, err
	}
	k2, err := r.ReadInt()
	if err != nil {
		return false, err
	}
	if !h.cfg.ShowLicence {
		return true, nil
	}
	sk, issued := client.SessionKey()
	return issued && sk.CheckLoginPair(k1, k2), nil
}

// handleRequestServerList processes opcode 0x05 in state AUTHED_LOGIN.
func (h *Handler) handleRequestServerList(client *Client, data, buf []byte) (int, bool, error) {
	ok, err := h.checkLoginPair(client, packet.NewReader(data))
	if err != nil {
		return 0, false, fmt.Errorf("RequestServerList: %w", err)
	}
	if !ok {
		slog.Warn("login pair mismatch in RequestServerList", "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonAccessFailed)
		return n, ok, nil
	}

	return h.buildServerList(client, buf)
}

// handleRequestServerLogin processes opcode 0x02 in state AUTHED_LOGIN.
func (h *Handler) handleRequestServerLogin(
	ctx context.Context,
	client *Client,
	data, buf []byte,
) (int, bool, error) {
	if len(data) < 9 {
		return 0, false, fmt.Errorf("RequestServerLogin packet too short: %d", len(data))
	}

	r := packet.NewReader(data)
	ok, err := h.checkLoginPair(client, r)
	if err != nil {
		return 0, false, fmt.Errorf("RequestServerLogin: %w", err)
	}
	if !ok {
		slog.Warn("login pair mismatch in RequestServerLogin", "client", client.IP())
		n, ok := closeFail(buf, serverpackets.ReasonAccessFailed)
		return n, ok, nil
	}
	serverID, err := r.ReadByte()
	if err != nil {
		return 0, false, fmt.Errorf("RequestServerLogin: %w", err)
	}

	if !h.ctrl.IsLoginPossible(ctx, client, int(serverID)) {
		slog.Warn("server login refused", "login", client.Account(), "server_id", serverID, "client", client.IP())
		return serverpackets.PlayFail(buf, serverpackets.PlayFailServerOverloaded), !h.cfg.CloseOnPlayFail, nil
	}

	client.setJoinedGS()
	sk, _ := client.SessionKey()
	slog.Info("server login OK", "login", client.Account(), "server_id", serverID, "client", client.IP())
	return serverpackets.PlayOk(buf, sk.PlayOkID1, sk.PlayOkID2), true, nil
}

// buildServerList writes the server list as seen by client into buf.
func (h *Handler) buildServerList(client *Client, buf []byte) (int, bool, error) {
	access := client.AccessLevel()
	infos := h.ctrl.Servers().List()

	servers := make([]serverpackets.ServerInfo, 0, len(infos))
	for _, gsi := range infos {
		status := gsi.Status()
		if status == gameserver.StatusGMOnly && access <= 0 {
			status = gameserver.StatusDown
		}
		servers = append(servers, serverpackets.ServerInfo{
			ID:             byte(gsi.ID()),
			IP:             gameserver.ResolveIPv4(gsi.ServerAddress(client.Addr())),
			Port:           int32(gsi.Port()),
			AgeLimit:       byte(gsi.AgeLimit()),
			PvP:            gsi.IsPvP(),
			CurrentPlayers: int16(gsi.CurrentPlayerCount()),
			MaxPlayers:     int16(gsi.MaxPlayers()),
			Up:             status != gameserver.StatusDown,
			ServerType:     int32(gsi.ServerType()),
			Brackets:       gsi.ShowingBrackets(),
		})
	}

	n, err := serverpackets.ServerList(buf, servers, byte(client.LastServer()), charactersBlock(client, time.Now()))
	if err != nil {
		return 0, false, fmt.Errorf("writing ServerList: %w", err)
	}
	return n, true, nil
}

func charactersBlock(client *Client, now time.Time) []serverpackets.CharactersOnServer {
	chars, deletions := client.Characters()
	if len(chars) == 0 {
		return nil
	}

	ids := slices.Sorted(maps.Keys(chars))
	block := make([]serverpackets.CharactersOnServer, 0, len(ids))
	for _, id := range ids {
		entry := serverpackets.CharactersOnServer{ServerID: byte(id), Count: byte(chars[id])}
		for _, at := range deletions[id] {
			entry.DeletionSeconds = append(entry.DeletionSeconds, int32((at-now.UnixMilli())/1000))
		}
		block = append(block, entry)
	}
	return block
}
