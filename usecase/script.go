package usecase

import (
	"fmt"

	domainConversation "github.com/AzielCF/az-funnel/domains/conversation"
	domainMessage "github.com/AzielCF/az-funnel/domains/message"
	"github.com/spf13/viper"
)

const (
	ReplyPreview = "PREVIA"
	ReplyPrices  = "VALORES"
	ReplyPix     = "PIX"
	ReplyGold    = "BUY_OURO"
	ReplySilver  = "BUY_PRATA"
	ReplyBronze  = "BUY_BRONZE"

	DefaultImageURL = "https://raw.githubusercontent.com/digitalhats2-source/whatsapp-bot/main/Menu.jpeg"
)

const pricesBody = `💰 *VALORES VIP*

🔥 Acesso exclusivo
📸 Fotos + 🎥 vídeos

Pix disponível
Quer garantir o seu acesso? 😘`

const pixBody = `💳 *Pagamento via Pix*

Envie o valor do pacote escolhido e mande o comprovante aqui mesmo.
Assim que confirmar, libero seu acesso 😘`

func pricesMenu() domainConversation.Action {
	return domainConversation.Action{
		Type:   domainConversation.ActionButtons,
		Body:   pricesBody,
		Footer: "Escolha seu pacote",
		Buttons: []domainMessage.ReplyButton{
			{ID: ReplyGold, Title: "🥇 Ouro"},
			{ID: ReplySilver, Title: "🥈 Prata"},
			{ID: ReplyBronze, Title: "🥉 Bronze"},
		},
	}
}

func purchaseAck(pkg string) []domainConversation.Action {
	return []domainConversation.Action{
		{
			Type: domainConversation.ActionText,
			Body: fmt.Sprintf("Boa escolha amor 😍 Pacote *%s* separado pra você.", pkg),
		},
		{Type: domainConversation.ActionPause},
		{Type: domainConversation.ActionText, Body: pixBody},
	}
}

// DefaultScript is the built-in funnel: intro image and menu, preview video,
// price list and the purchase follow-ups.
func DefaultScript() *domainConversation.Script {
	pause := domainConversation.Action{Type: domainConversation.ActionPause}
	return &domainConversation.Script{
		Name: "vip-default",
		Greeting: []domainConversation.Action{
			{Type: domainConversation.ActionImage, Link: DefaultImageURL},
			pause,
			{
				Type: domainConversation.ActionButtons,
				Body: "Oi amor 😘\nQuer ver algo exclusivo que não vai pro feed?",
				Buttons: []domainMessage.ReplyButton{
					{ID: ReplyPreview, Title: "🔥 Ver prévia"},
					{ID: ReplyPrices, Title: "💰 Ver valores"},
				},
			},
		},
		Replies: map[string][]domainConversation.Action{
			ReplyPreview: {
				{Type: domainConversation.ActionVideo, Upload: true, Caption: "Só um gostinho do que tem no VIP 😈"},
				pause,
				pricesMenu(),
			},
			ReplyPrices: {pricesMenu()},
			ReplyPix:    {{Type: domainConversation.ActionText, Body: pixBody}},
			ReplyGold:   purchaseAck("Ouro"),
			ReplySilver: purchaseAck("Prata"),
			ReplyBronze: purchaseAck("Bronze"),
		},
	}
}

// scriptFile is the on-disk layout. Replies are a list because viper folds
// map keys to lower case and reply ids are case sensitive.
type scriptFile struct {
	Name     string                      `mapstructure:"name"`
	Greeting []domainConversation.Action `mapstructure:"greeting"`
	Replies  []struct {
		ID      string                      `mapstructure:"id"`
		Actions []domainConversation.Action `mapstructure:"actions"`
	} `mapstructure:"replies"`
}

// LoadScript reads a YAML or JSON script file. The format follows the extension.
func LoadScript(file string) (*domainConversation.Script, error) {
	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read script %s: %w", file, err)
	}

	var raw scriptFile
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode script %s: %w", file, err)
	}

	script := &domainConversation.Script{
		Name:     raw.Name,
		Greeting: raw.Greeting,
		Replies:  make(map[string][]domainConversation.Action, len(raw.Replies)),
	}
	if script.Name == "" {
		script.Name = file
	}
	for _, r := range raw.Replies {
		if _, dup := script.Replies[r.ID]; dup {
			return nil, fmt.Errorf("script %s: duplicate reply id %q", file, r.ID)
		}
		script.Replies[r.ID] = r.Actions
	}
	return script, nil
}
