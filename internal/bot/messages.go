package bot

// User-facing texts. Input errors get fixed, specific messages; anything
// that went wrong on our side collapses into the generic error message.

const welcomeMessage = `Welcome to Text-to-Speech Bot! 🎤

I can convert your text messages into voice messages.
Just send me any text and I'll reply with an audio message.

Supported languages:
🇬🇧 English (default)
🇪🇸 Spanish (/lang es)
🇫🇷 French (/lang fr)
🇩🇪 German (/lang de)
🇮🇹 Italian (/lang it)
🇵🇹 Portuguese (/lang pt)
🇷🇺 Russian (/lang ru)
🇮🇳 Hindi (/lang hi)
🇯🇵 Japanese (/lang ja)
🇰🇷 Korean (/lang ko)
🇮🇳 Malayalam (/lang ml)

Commands:
/start - Show this welcome message
/help - Show help information
/lang - Change language (e.g., /lang fr for French)`

const helpMessage = `How to use this bot:

1. Simply send any text message
2. I'll convert it to speech and send it back as a voice message

Supported languages:
   - English (default, /lang en)
   - Spanish (/lang es)
   - French (/lang fr)
   - German (/lang de)
   - Italian (/lang it)
   - Portuguese (/lang pt)
   - Russian (/lang ru)
   - Hindi (/lang hi)
   - Japanese (/lang ja)
   - Korean (/lang ko)
   - Malayalam (/lang ml)

To change language:
Use /lang followed by the language code
Example: /lang fr (for French)

Note: Messages should not be too long (max 100,000 characters)`

const aboutMessage = "I'm a Text-to-Speech bot that can convert your messages into voice in multiple languages! 🎤"

const errorMessage = "Sorry, an error occurred while processing your request. Please try again."

const textTooLongMessage = "Text is too long! Please send a message with less than 100,000 characters."

const invalidLanguageMessage = "Invalid language code. Use /help to see all available languages and their codes."

const languageChangedFmt = "Language changed to %s"

const languagePrompt = "Please select your preferred language:"

const broadcastHelp = `Admin Only Command:
/broadcast [message] - Send a message to all users
Example: /broadcast Hello everyone!

Note: This command is only available to admin users.`

const broadcastUnauthorized = "Sorry, you are not authorized to use this command."

const broadcastUsage = "Please provide a message to broadcast.\nExample: /broadcast Hello everyone!"

const broadcastSuccessFmt = "Message broadcast to %d users successfully!"

const broadcastNoUsers = "No users to broadcast to."
