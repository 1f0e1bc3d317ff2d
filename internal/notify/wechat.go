package notify

import (
	"competitor-price-monitor/internal/types"
	"context"
	"github.com/eatmoreapple/openwechat"
	"github.com/pkg/errors"
	"io"
	log "github.com/sirupsen/logrus"
	"sync"
)

// GroupSender sends a text to a chat group by nickname
type GroupSender interface {
	SendToGroup(groupName, text string) error
}

// WeChat posts alerts to a WeChat group
type WeChat struct {
	sender GroupSender
	group  string
}

func NewWeChat(sender GroupSender, group string) *WeChat {
	return &WeChat{sender: sender, group: group}
}

func (w *WeChat) Dispatch(_ context.Context, a types.Alert) error {
	if err := w.sender.SendToGroup(w.group, FormatText(a)); err != nil {
		return errors.Wrapf(err, "could not send alert to wechat group %s", w.group)
	}
	return nil
}

// WeChatBot is a GroupSender backed by a logged-in desktop session
type WeChatBot struct {
	bot     *openwechat.Bot
	storage io.Closer
	mu      sync.Mutex
}

// LoginWeChat logs in with the stored session, falling back to a QR code printed to the console
func LoginWeChat(storagePath string) (*WeChatBot, error) {
	bot := openwechat.DefaultBot(openwechat.Desktop)
	bot.UUIDCallback = openwechat.PrintlnQrcodeUrl

	reloadStorage := openwechat.NewFileHotReloadStorage(storagePath)
	if err := bot.HotLogin(reloadStorage, openwechat.NewRetryLoginOption()); err != nil {
		reloadStorage.Close()
		return nil, errors.Wrap(err, "wechat login failed")
	}

	log.Info("WeChat session ready")
	return &WeChatBot{bot: bot, storage: reloadStorage}, nil
}

func (w *WeChatBot) SendToGroup(groupName, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	self, err := w.bot.GetCurrentUser()
	if err != nil {
		return errors.Wrap(err, "could not get current wechat user")
	}
	groups, err := self.Groups()
	if err != nil {
		return errors.Wrap(err, "could not list wechat groups")
	}

	target := groups.SearchByNickName(1, groupName)
	if target.Count() == 0 {
		return errors.Errorf("wechat group %s not found", groupName)
	}
	_, err = target.First().SendText(text)
	return err
}

// Close ends the session and releases the session storage
func (w *WeChatBot) Close() error {
	if err := w.bot.Logout(); err != nil {
		log.Debugf("wechat logout: %v", err)
	}
	return w.storage.Close()
}
