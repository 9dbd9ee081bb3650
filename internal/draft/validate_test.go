package draft

import "testing"

func TestValidPrice(t *testing.T) {
	valid := []string{"10", "10.50", "$10.50", "0", "$150"}
	invalid := []string{"abc", "10.5.5", "", "10.5", "$", "10,50", "$abc"}

	for _, price := range valid {
		if !ValidPrice(price) {
			t.Errorf("expected %q to be valid", price)
		}
	}
	for _, price := range invalid {
		if ValidPrice(price) {
			t.Errorf("expected %q to be invalid", price)
		}
	}
}

func TestValidateBasics(t *testing.T) {
	t.Run("empty name and price are blocked", func(t *testing.T) {
		s := NewStore()
		result := s.ValidateStage(StageBasics)

		if result.OK() {
			t.Fatal("expected validation failure")
		}
		if result.Errors["basics.name"] == "" {
			t.Error("expected name-required error")
		}
		if result.Errors["basics.price"] == "" {
			t.Error("expected price-required error")
		}
		if s.Error("basics.name") == "" {
			t.Error("expected errors recorded in the store")
		}
	})

	t.Run("malformed price", func(t *testing.T) {
		s := NewStore()
		s.PatchMetadata(Metadata{Name: strPtr("Logo Pack"), Price: strPtr("10.5.5")})

		result := s.ValidateStage(StageBasics)
		if result.OK() {
			t.Fatal("expected validation failure")
		}
		if result.Errors["basics.price"] == "" {
			t.Error("expected price format error")
		}
	})

	t.Run("valid basics pass", func(t *testing.T) {
		s := NewStore()
		s.PatchMetadata(Metadata{Name: strPtr("Logo Pack"), Price: strPtr("$150.00")})

		if result := s.ValidateStage(StageBasics); !result.OK() {
			t.Errorf("expected success, got %v", result.Errors)
		}
	})
}

func TestValidateContent(t *testing.T) {
	t.Run("label required for every field", func(t *testing.T) {
		s := NewStore()
		id := s.AddField(FieldAttachment)

		result := s.ValidateStage(StageContent)
		if result.OK() {
			t.Fatal("expected failure for unlabeled field")
		}
		if result.Errors["field."+id+".label"] == "" {
			t.Error("expected label error")
		}
	})

	t.Run("per-variant requirements", func(t *testing.T) {
		s := NewStore()
		text := s.AddField(FieldShortText)
		_ = s.SetFieldProperty(text, "label", "Summary")
		list := s.AddField(FieldBulletList)
		_ = s.SetFieldProperty(list, "label", "Items")
		link := s.AddField(FieldLink)
		_ = s.SetFieldProperty(link, "label", "Reference")

		result := s.ValidateStage(StageContent)

		if result.Errors["field."+text+".content"] == "" {
			t.Error("expected content-required error for text field")
		}
		if result.Errors["field."+list+".items"] == "" {
			t.Error("expected items-required error for list field")
		}
		if result.Errors["field."+link+".url"] == "" {
			t.Error("expected url-required error for link field")
		}
	})

	t.Run("first failure in field order is the edit target", func(t *testing.T) {
		s := NewStore()
		ok := s.AddField(FieldShortText)
		_ = s.SetFieldProperty(ok, "label", "Summary")
		_ = s.SetFieldProperty(ok, "content", "done")
		bad := s.AddField(FieldLongText)
		_ = s.SetFieldProperty(bad, "label", "Details")
		worse := s.AddField(FieldLink)

		result := s.ValidateStage(StageContent)
		if result.FirstFieldID != bad {
			t.Errorf("expected first invalid field %s, got %s", bad, result.FirstFieldID)
		}
		_ = worse
	})

	t.Run("attachment and databaseItem have no hard requirement", func(t *testing.T) {
		s := NewStore()
		att := s.AddField(FieldAttachment)
		_ = s.SetFieldProperty(att, "label", "Files")
		db := s.AddField(FieldDatabaseItem)
		_ = s.SetFieldProperty(db, "label", "Inventory")

		if result := s.ValidateStage(StageContent); !result.OK() {
			t.Errorf("expected success, got %v", result.Errors)
		}
	})

	t.Run("review stage has no blocking rules", func(t *testing.T) {
		s := NewStore()
		s.AddField(FieldShortText)
		if result := s.ValidateStage(StageReview); !result.OK() {
			t.Error("expected review stage to pass unconditionally")
		}
	})
}
