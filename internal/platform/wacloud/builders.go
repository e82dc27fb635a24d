package wacloud

import "warelay/internal/model"

// buildMessage resolves the vendor type tag onto the canonical set and
// dispatches to the per-type builder. Unknown tags become unsupported
// messages that preserve the original tag; they are never dropped.
func buildMessage(msg message) model.Message {
	out := model.Message{
		ID:   msg.ID,
		Type: model.CanonicalMessageType(msg.Type),
	}

	switch out.Type {
	case model.MessageText:
		if msg.Text != nil {
			out.Text = &model.TextContent{Body: msg.Text.Body}
		}
	case model.MessageImage:
		out.Media = buildMedia(msg.Image)
	case model.MessageAudio:
		out.Media = buildMedia(msg.Audio)
	case model.MessageVideo:
		out.Media = buildMedia(msg.Video)
	case model.MessageDocument:
		out.Media = buildMedia(msg.Document)
	case model.MessageSticker:
		out.Media = buildMedia(msg.Sticker)
	case model.MessageLocation:
		if msg.Location != nil {
			out.Location = &model.LocationContent{
				Latitude:  msg.Location.Latitude,
				Longitude: msg.Location.Longitude,
				Name:      msg.Location.Name,
				Address:   msg.Location.Address,
			}
		}
	case model.MessageContact:
		out.Contacts = buildContacts(msg.Contacts)
	case model.MessageInteractive:
		out.Interactive = buildInteractive(msg.Interactive)
	case model.MessageButton:
		if msg.Button != nil {
			out.Button = &model.ButtonReply{
				Payload: msg.Button.Payload,
				Text:    msg.Button.Text,
			}
		}
	case model.MessageOrder:
		out.Order = buildOrder(msg.Order)
	case model.MessageReaction:
		if msg.Reaction != nil {
			out.Reaction = &model.ReactionContent{
				MessageID: msg.Reaction.MessageID,
				Emoji:     msg.Reaction.Emoji,
			}
		}
	case model.MessageSystem:
		if msg.System != nil {
			out.System = &model.SystemContent{
				Body:              msg.System.Body,
				SystemType:        msg.System.Type,
				NewPlatformUserID: msg.System.NewWaID,
			}
		}
	case model.MessageUnsupported:
		out.RawType = msg.Type
	}

	return out
}

func buildMedia(m *media) *model.MediaContent {
	if m == nil {
		return nil
	}
	return &model.MediaContent{
		MediaID:  m.ID,
		MimeType: m.MimeType,
		SHA256:   m.Sha256,
		Filename: m.Filename,
		Caption:  m.Caption,
		Voice:    m.Voice,
		Animated: m.Animated,
	}
}

func buildContacts(cards []contactCard) []model.ContactCard {
	if len(cards) == 0 {
		return nil
	}
	out := make([]model.ContactCard, 0, len(cards))
	for _, c := range cards {
		card := model.ContactCard{
			FormattedName: c.Name.FormattedName,
			FirstName:     c.Name.FirstName,
			LastName:      c.Name.LastName,
		}
		for _, p := range c.Phones {
			card.Phones = append(card.Phones, model.ContactPhone{
				Phone:          p.Phone,
				Type:           p.Type,
				PlatformUserID: p.WaID,
			})
		}
		for _, e := range c.Emails {
			card.Emails = append(card.Emails, e.Email)
		}
		out = append(out, card)
	}
	return out
}

func buildInteractive(i *interactive) *model.InteractiveReply {
	if i == nil {
		return nil
	}
	reply := &model.InteractiveReply{ReplyType: i.Type}
	switch {
	case i.ButtonReply != nil:
		reply.ID = i.ButtonReply.ID
		reply.Title = i.ButtonReply.Title
	case i.ListReply != nil:
		reply.ID = i.ListReply.ID
		reply.Title = i.ListReply.Title
		reply.Description = i.ListReply.Description
	}
	return reply
}

func buildOrder(o *order) *model.OrderContent {
	if o == nil {
		return nil
	}
	out := &model.OrderContent{
		CatalogID: o.CatalogID,
		Text:      o.Text,
	}
	for _, item := range o.ProductItems {
		out.Items = append(out.Items, model.OrderItem{
			ProductRetailerID: item.ProductRetailerID,
			Quantity:          item.Quantity,
			ItemPrice:         item.ItemPrice,
			Currency:          item.Currency,
		})
	}
	return out
}
