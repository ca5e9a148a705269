package classify

import "fmt"

// responses maps (intent, language) to an auto-reply template.
// %s is the recipient's name.
var responses = map[string]map[string]string{
	"completion": {
		"en":      "Thank you %s for completing this task! We'll process your information shortly.",
		"kannada": "%s, ಈ ಕಾರ್ಯವನ್ನು ಪೂರ್ಣ ಮಾಡಿದ್ದಕ್ಕಾಗಿ ಧನ್ಯವಾದ! ನಾವು ನಿಮ್ಮ ಮಾಹಿತಿಯನ್ನು ಶೀಘ್ರವೇ ಪ್ರಕ್ರಿಯೆಗೊಳಿಸುತ್ತೇವೆ.",
		"hindi":   "%s, इस कार्य को पूरा करने के लिए धन्यवाद! हम जल्द ही आपकी जानकारी प्रक्रिया करेंगे।",
		"nepali":  "%s, यो कार्य पूरा गरेकोमा धन्यवाद! हामी चाँडै तपाईंको जानकारी प्रक्रिया गर्नेछौं।",
	},
	"confusion": {
		"en":      "Hi %s, we understand you need help. Our team will reach out to you shortly with detailed guidance.",
		"kannada": "%s, ನೀವು ಸಹಾಯದ ಅವಶ್ಯಕತೆ ಇದೆ ಎಂದು ನಾವು ತಿಳಿದಿದ್ದೇವೆ. ನಮ್ಮ ತಂಡವು ಶೀಘ್ರವೇ ವಿವರವಾದ ಮಾರ್ಗದರ್ಶನದೊಂದಿಗೆ ನಿಮ್ಮನ್ನು ಸಂಪರ್ಕಿಸುತ್ತದೆ.",
		"hindi":   "%s, हम समझते हैं कि आपको मदद की जरूरत है। हमारी टीम शीघ्र ही विस्तृत मार्गदर्शन के साथ आपसे संपर्क करेगी।",
		"nepali":  "%s, हामीले बुझ्यौं कि तपाईंलाई मद्दत चाहिएको छ। हाम्रो टोली छिट्टै विस्तृत मार्गदर्शनका साथ तपाईंसँग सम्पर्क गर्नेछ।",
	},
	"opt_out": {
		"en":      "We're sorry to see you go! If you change your mind, you can resubscribe anytime.",
		"kannada": "ನೀವು ಹೋಗುತ್ತಿರುವುದು ನೋಡಿ ನಮಗೆ ವಿಷಾದವಾಗಿದೆ! ನೀವು ಮನಸ್ಸು ಬದಲಾಯಿಸಿದರೆ, ಯಾವುದೇ ಸಮಯದಲ್ಲಿ ಮರು-ಚಂದಾದಾರರಾಗಬಹುದು.",
		"hindi":   "आपको जाते हुए देखकर हमें खेद है! यदि आप अपना विचार बदलते हैं, तो आप कभी भी पुनः सदस्यता ले सकते हैं।",
		"nepali":  "तपाईं जानुभएको देखेर हामीलाई खेद लाग्यो! विचार बदलिए तपाईं जहिले पनि पुनः सदस्यता लिन सक्नुहुन्छ।",
	},
}

// Respond returns the auto-reply for (intent, language), falling back to
// the intent's English entry and then to a generic acknowledgement.
// The result is always non-empty.
func Respond(intent, language, userName string) string {
	if byLang, ok := responses[intent]; ok {
		if tmpl, ok := byLang[language]; ok {
			return renderName(tmpl, userName)
		}
		if tmpl, ok := byLang[DefaultLanguage]; ok {
			return renderName(tmpl, userName)
		}
	}
	return fmt.Sprintf("Thank you for your response, %s!", userName)
}

func renderName(tmpl, userName string) string {
	if userName == "" {
		userName = "User"
	}
	// Templates without a name slot pass through unchanged.
	if !hasNameSlot(tmpl) {
		return tmpl
	}
	return fmt.Sprintf(tmpl, userName)
}

func hasNameSlot(tmpl string) bool {
	for i := 0; i+1 < len(tmpl); i++ {
		if tmpl[i] == '%' && tmpl[i+1] == 's' {
			return true
		}
	}
	return false
}
